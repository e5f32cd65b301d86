package mqtt

import "fmt"

// Topic prefixes for the broker namespaces the engine talks to.
//
// Intents arrive on the Hermes namespace used by Rhasspy. Service calls and
// state updates use the Home Assistant namespaces. The engine's own status
// lives under rhasspy/automation.
const (
	// TopicPrefixHermes is the base for Rhasspy Hermes topics.
	TopicPrefixHermes = "hermes"

	// TopicPrefixService is the base for outbound service call topics.
	TopicPrefixService = "homeassistant/service"

	// TopicPrefixStatestream is the base for entity state updates.
	TopicPrefixStatestream = "homeassistant/statestream"

	// TopicPrefixEngine is the base for the engine's own topics.
	TopicPrefixEngine = "rhasspy/automation"
)

// Topics provides builders for the MQTT topics the engine uses.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.Service("light", "turn_on")
//	// Returns: "homeassistant/service/light/turn_on"
type Topics struct{}

// Intent returns the topic a single recognised intent is published on.
//
// Example: hermes/intent/ChangeLightState
func (Topics) Intent(intentName string) string {
	return fmt.Sprintf("%s/intent/%s", TopicPrefixHermes, intentName)
}

// IntentEvents returns a pattern matching all recognised intents.
//
// Pattern: hermes/intent/#
func (Topics) IntentEvents() string {
	return fmt.Sprintf("%s/intent/#", TopicPrefixHermes)
}

// TTSSay returns the topic for text-to-speech requests.
//
// Example: hermes/tts/say
func (Topics) TTSSay() string {
	return fmt.Sprintf("%s/tts/say", TopicPrefixHermes)
}

// Service returns the topic a service call is published on.
//
// Example: homeassistant/service/light/turn_on
func (Topics) Service(domain, service string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixService, domain, service)
}

// EntityState returns the statestream topic carrying an entity's state value.
//
// Example: homeassistant/statestream/binary_sensor/garage_door/state
func (Topics) EntityState(domain, object string) string {
	return fmt.Sprintf("%s/%s/%s/state", TopicPrefixStatestream, domain, object)
}

// Statestream returns a pattern matching the full statestream namespace.
//
// Pattern: homeassistant/statestream/#
func (Topics) Statestream() string {
	return fmt.Sprintf("%s/#", TopicPrefixStatestream)
}

// Status returns the engine's own status topic.
//
// The engine publishes retained online/offline payloads here, and the
// broker publishes the LWT here on unexpected disconnect.
//
// Example: rhasspy/automation/status
func (Topics) Status() string {
	return fmt.Sprintf("%s/status", TopicPrefixEngine)
}
