// Package hass publishes resolved service calls to the platform's MQTT
// service topics.
//
// The automation engine hands this bridge a rendered service name and a
// flat string data map; the bridge owns the wire encoding and topic
// scheme:
//
//	light.turn_on          -> homeassistant/service/light/turn_on  (JSON data)
//	media_player.media_pause -> homeassistant/service/media_player/media_pause
//	mqtt.publish           -> data["topic"], data["payload"] verbatim
//
// The mqtt.publish pseudo-service lets rules target arbitrary topics,
// typically the hermes/tts/say intake for spoken responses.
//
// The bridge performs no retries itself: the engine records a failed
// call as a terminal service_failed status, and the broker session
// handles redelivery at the QoS level.
package hass
