package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Intent", topics.Intent("ChangeLightState"), "hermes/intent/ChangeLightState"},
		{"IntentEvents", topics.IntentEvents(), "hermes/intent/#"},
		{"TTSSay", topics.TTSSay(), "hermes/tts/say"},
		{"Service", topics.Service("light", "turn_on"), "homeassistant/service/light/turn_on"},
		{"EntityState", topics.EntityState("binary_sensor", "garage_door"), "homeassistant/statestream/binary_sensor/garage_door/state"},
		{"Statestream", topics.Statestream(), "homeassistant/statestream/#"},
		{"Status", topics.Status(), "rhasspy/automation/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublishValidation(t *testing.T) {
	// A zero-value client is enough to exercise input validation,
	// which runs before any connection check.
	c := &Client{}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("some/topic", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
}
