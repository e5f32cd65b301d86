// Package mqtt provides MQTT client connectivity for the automation engine.
//
// This package manages:
//   - Connection to the Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the only transport the engine speaks. Rhasspy publishes recognised
// intents on the Hermes namespace, Home Assistant mirrors entity state over
// its statestream integration, and the engine publishes service calls back
// the other way. The broker decouples the three systems.
//
//	Rhasspy → MQTT Broker → Automation Engine → MQTT Broker → Home Assistant
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all recognised intents
//	err = client.Subscribe(mqtt.Topics{}.IntentEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a service call
//	topic := mqtt.Topics{}.Service("light", "turn_on")
//	client.Publish(topic, []byte(`{"entity_id":"light.bedroom"}`), 1, false)
package mqtt
