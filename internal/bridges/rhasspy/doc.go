// Package rhasspy feeds recognised voice intents into the automation
// engine as events.
//
// The voice pipeline publishes one message per recognised intent on
// hermes/intent/<intentName>. This package subscribes to the full
// intent stream and normalises each message:
//
//	hermes/intent/ChangeLightState
//	  {"intent": {"intentName": "ChangeLightState"},
//	   "slots": [{"slotName": "name", "value": {"value": "kitchen"}},
//	             {"slotName": "state", "value": {"value": "on"}}]}
//
//	  -> Event{Type: "rhasspy_ChangeLightState",
//	           Payload: {"name": "kitchen", "state": "on"}}
//
// Older recognisers emit a flat shape instead (intent.name plus a slots
// map); both are accepted. Slot values are flattened to strings, which
// is what rule triggers and templates compare against.
//
// Decoding failures are logged and skipped. One garbled message must
// never take the subscription down.
package rhasspy
