package state

import (
	"errors"
	"testing"

	"github.com/Darknemesis98/rhasspy/internal/infrastructure/mqtt"
)

// fakeSubscriber captures the handler so tests can inject messages.
type fakeSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.topic = topic
	f.handler = handler
	return nil
}

func TestGetUnknownEntity(t *testing.T) {
	s := NewStore()

	_, err := s.Get("light.bedroom")
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("Get() error = %v, want ErrEntityNotFound", err)
	}
}

func TestSetAndGet(t *testing.T) {
	s := NewStore()
	s.Set("light.bedroom", "on")

	got, err := s.Get("light.bedroom")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "on" {
		t.Errorf("Get() = %q, want on", got)
	}

	// Last write wins.
	s.Set("light.bedroom", "off")
	got, _ = s.Get("light.bedroom")
	if got != "off" {
		t.Errorf("Get() after update = %q, want off", got)
	}
}

func TestIsState(t *testing.T) {
	s := NewStore()
	s.Set("binary_sensor.garage_door", "off")

	if !s.IsState("binary_sensor.garage_door", "off") {
		t.Error("IsState(off) = false, want true")
	}
	if s.IsState("binary_sensor.garage_door", "on") {
		t.Error("IsState(on) = true, want false")
	}
	if s.IsState("sensor.missing", "anything") {
		t.Error("IsState(unknown entity) = true, want false")
	}
}

func TestSubscribeFeedsStore(t *testing.T) {
	s := NewStore()
	sub := &fakeSubscriber{}

	if err := s.Subscribe(sub, "homeassistant/statestream/#", 1, nil); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if sub.topic != "homeassistant/statestream/#" {
		t.Errorf("subscribed topic = %q", sub.topic)
	}

	// State topic populates the cache.
	if err := sub.handler("homeassistant/statestream/light/bedroom/state", []byte("on")); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if got, _ := s.Get("light.bedroom"); got != "on" {
		t.Errorf("Get() = %q, want on", got)
	}

	// Attribute topics are ignored.
	if err := sub.handler("homeassistant/statestream/light/bedroom/brightness", []byte("128")); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestParseStateTopic(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		wantID string
		wantOK bool
	}{
		{"state topic", "homeassistant/statestream/light/bedroom/state", "light.bedroom", true},
		{"binary sensor", "homeassistant/statestream/binary_sensor/garage_door/state", "binary_sensor.garage_door", true},
		{"attribute topic", "homeassistant/statestream/light/bedroom/brightness", "", false},
		{"too short", "light/state", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseStateTopic(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}
