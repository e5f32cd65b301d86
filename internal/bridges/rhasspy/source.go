package rhasspy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Darknemesis98/rhasspy/internal/automation"
	"github.com/Darknemesis98/rhasspy/internal/infrastructure/mqtt"
)

// eventPrefix namespaces voice intents in the event type space, so rule
// triggers cannot collide with events from other sources.
const eventPrefix = "rhasspy_"

// defaultQoS for the intent subscription.
const defaultQoS = 1

// EventSink receives normalised events. Satisfied by *automation.Engine.
type EventSink interface {
	HandleEvent(ctx context.Context, ev automation.Event) []automation.DispatchRecord
}

// Subscriber is the interface for registering a topic handler.
// Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger defines the logging interface used by the source.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Source turns recognised voice intents into events for the engine.
//
// It subscribes to the intent stream and decodes each message into an
// automation.Event: the intent name becomes the event type (prefixed
// "rhasspy_"), the slots become the string payload. A malformed message
// is logged and skipped; the subscription stays up.
type Source struct {
	sink   EventSink
	ctx    context.Context
	logger Logger
	qos    byte
}

// NewSource creates an intent source feeding the given sink.
//
// The context is attached to every delivered event; cancelling it stops
// in-flight dispatches during shutdown.
func NewSource(ctx context.Context, sink EventSink) *Source {
	return &Source{
		sink:   sink,
		ctx:    ctx,
		logger: noopLogger{},
		qos:    defaultQoS,
	}
}

// SetLogger sets the logger for the source.
func (s *Source) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Subscribe attaches the source to the intent topic.
//
// Parameters:
//   - client: Broker subscription surface
//   - topic: Intent topic filter (normally "hermes/intent/#")
func (s *Source) Subscribe(client Subscriber, topic string) error {
	return client.Subscribe(topic, s.qos, s.handleMessage)
}

// handleMessage decodes one intent message and feeds it to the sink.
func (s *Source) handleMessage(topic string, payload []byte) error {
	ev, err := decodeIntent(payload)
	if err != nil {
		s.logger.Warn("skipping intent message", "topic", topic, "error", err)
		return nil
	}

	s.logger.Debug("intent received", "event_type", ev.Type, "slots", len(ev.Payload))
	s.sink.HandleEvent(s.ctx, ev)
	return nil
}

// intentMessage covers both wire shapes the recogniser emits: the hermes
// NLU payload (intent.intentName, slots as a list) and the flat form
// (intent.name, slots as a map).
type intentMessage struct {
	Input  string `json:"input"`
	Text   string `json:"text"`
	Intent struct {
		IntentName string `json:"intentName"`
		Name       string `json:"name"`
	} `json:"intent"`
	Slots  json.RawMessage `json:"slots"`
	SiteID string          `json:"siteId"`
}

// hermesSlot is one entry of the hermes slot list.
type hermesSlot struct {
	SlotName string `json:"slotName"`
	RawValue string `json:"rawValue"`
	Value    struct {
		Value any `json:"value"`
	} `json:"value"`
}

// decodeIntent parses an intent message into an event.
func decodeIntent(payload []byte) (automation.Event, error) {
	var msg intentMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return automation.Event{}, fmt.Errorf("%w: %w", ErrBadIntent, err)
	}

	name := msg.Intent.IntentName
	if name == "" {
		name = msg.Intent.Name
	}
	if name == "" {
		return automation.Event{}, fmt.Errorf("%w: no intent name", ErrBadIntent)
	}

	slots, err := decodeSlots(msg.Slots)
	if err != nil {
		return automation.Event{}, err
	}

	return automation.Event{
		Type:    eventPrefix + name,
		Payload: slots,
	}, nil
}

// decodeSlots accepts either slot wire shape and flattens it to strings.
func decodeSlots(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]string{}, nil
	}

	// Hermes form: a list of named slots.
	var list []hermesSlot
	if err := json.Unmarshal(raw, &list); err == nil {
		slots := make(map[string]string, len(list))
		for _, slot := range list {
			if slot.SlotName == "" {
				continue
			}
			value := slotValue(slot.Value.Value)
			if value == "" {
				value = slot.RawValue
			}
			slots[slot.SlotName] = value
		}
		return slots, nil
	}

	// Flat form: slot name to value.
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: slots: %w", ErrBadIntent, err)
	}
	slots := make(map[string]string, len(flat))
	for name, value := range flat {
		slots[name] = slotValue(value)
	}
	return slots, nil
}

// slotValue renders a decoded slot value as the string rules compare.
func slotValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case bool:
		return strconv.FormatBool(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", n)
	}
}
