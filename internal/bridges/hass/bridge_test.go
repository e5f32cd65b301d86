package hass

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// ─── Test Fixtures ──────────────────────────────────────────────────────────

// mockPublisher captures published messages.
type mockPublisher struct {
	messages []published
	mu       sync.Mutex
	fail     bool
}

type published struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("broker unavailable")
	}
	m.messages = append(m.messages, published{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *mockPublisher) last(t *testing.T) published {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		t.Fatal("no message published")
	}
	return m.messages[len(m.messages)-1]
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestCallServiceJSON(t *testing.T) {
	pub := &mockPublisher{}
	bridge := New(pub)

	err := bridge.CallService(context.Background(), "light.turn_on", map[string]string{
		"entity_id":  "light.kitchen",
		"brightness": "255",
	})
	if err != nil {
		t.Fatalf("CallService: %v", err)
	}

	msg := pub.last(t)
	if msg.Topic != "homeassistant/service/light/turn_on" {
		t.Errorf("topic = %q", msg.Topic)
	}
	if msg.QoS != 1 {
		t.Errorf("QoS = %d, want 1", msg.QoS)
	}
	if msg.Retained {
		t.Error("service calls must not be retained")
	}

	var data map[string]string
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if data["entity_id"] != "light.kitchen" || data["brightness"] != "255" {
		t.Errorf("payload = %v", data)
	}
}

func TestCallServiceEmptyData(t *testing.T) {
	pub := &mockPublisher{}
	bridge := New(pub)

	if err := bridge.CallService(context.Background(), "homeassistant.restart", nil); err != nil {
		t.Fatalf("CallService: %v", err)
	}
	if got := string(pub.last(t).Payload); got != "null" && got != "{}" {
		t.Errorf("empty-data payload = %q", got)
	}
}

func TestCallServiceMQTTPublish(t *testing.T) {
	pub := &mockPublisher{}
	bridge := New(pub)

	err := bridge.CallService(context.Background(), "mqtt.publish", map[string]string{
		"topic":   "hermes/tts/say",
		"payload": `{"text": "the garage door is open"}`,
	})
	if err != nil {
		t.Fatalf("CallService: %v", err)
	}

	msg := pub.last(t)
	if msg.Topic != "hermes/tts/say" {
		t.Errorf("topic = %q, want hermes/tts/say", msg.Topic)
	}
	// Raw passthrough: no JSON re-encoding of the data map.
	if string(msg.Payload) != `{"text": "the garage door is open"}` {
		t.Errorf("payload = %q", msg.Payload)
	}
}

func TestCallServiceMQTTPublishMissingTopic(t *testing.T) {
	bridge := New(&mockPublisher{})

	err := bridge.CallService(context.Background(), "mqtt.publish", map[string]string{
		"payload": "orphaned",
	})
	if !errors.Is(err, ErrMissingTopic) {
		t.Errorf("expected ErrMissingTopic, got: %v", err)
	}
}

func TestCallServiceInvalidName(t *testing.T) {
	bridge := New(&mockPublisher{})

	for _, service := range []string{"", "turn_on", "light.", ".turn_on"} {
		if err := bridge.CallService(context.Background(), service, nil); !errors.Is(err, ErrInvalidService) {
			t.Errorf("CallService(%q): expected ErrInvalidService, got: %v", service, err)
		}
	}
}

func TestCallServicePublishError(t *testing.T) {
	pub := &mockPublisher{fail: true}
	bridge := New(pub)

	err := bridge.CallService(context.Background(), "light.turn_on", nil)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("expected ErrPublishFailed, got: %v", err)
	}
}

func TestCallServiceCancelledContext(t *testing.T) {
	pub := &mockPublisher{}
	bridge := New(pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bridge.CallService(ctx, "light.turn_on", nil)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("expected ErrPublishFailed, got: %v", err)
	}
	if len(pub.messages) != 0 {
		t.Error("nothing should publish after cancellation")
	}
}
