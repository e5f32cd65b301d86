package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Darknemesis98/rhasspy/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// defaultQoS for service call publishes. At-least-once: a lost
	// light.turn_on is worse than a duplicate.
	defaultQoS = 1

	// publishDomain is the pseudo-domain for raw topic publishes.
	publishDomain = "mqtt"

	// publishService is the pseudo-service for raw topic publishes.
	publishService = "publish"
)

// Publisher is the interface for delivering messages to the broker.
// Satisfied by *mqtt.Client; narrowed for mocking in tests.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Bridge translates resolved service calls into MQTT publishes.
//
// Regular calls become a JSON payload on the service topic for the
// call's domain and service. The pseudo-service "mqtt.publish" is
// special-cased: its data carries a raw topic and payload, published
// verbatim. That is how rules reach arbitrary topics such as the TTS
// intake without going through a service schema.
//
// Thread Safety: CallService is safe for concurrent use.
type Bridge struct {
	publisher Publisher
	topics    mqtt.Topics
	qos       byte
	logger    Logger
}

// New creates a service bridge over the given publisher.
func New(publisher Publisher) *Bridge {
	return &Bridge{
		publisher: publisher,
		qos:       defaultQoS,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// SetQoS overrides the QoS level for service publishes.
func (b *Bridge) SetQoS(qos byte) {
	b.qos = qos
}

// CallService publishes one resolved service call.
//
// The service must be in "domain.service" form; templated services are
// only validated here, after rendering. The context is honoured up to
// the publish handoff.
//
// Parameters:
//   - ctx: Context for cancellation
//   - service: Resolved service name (e.g. "light.turn_on")
//   - data: Resolved call parameters
//
// Returns:
//   - error: ErrInvalidService, ErrMissingTopic, or ErrPublishFailed
func (b *Bridge) CallService(ctx context.Context, service string, data map[string]string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	domain, name, ok := strings.Cut(service, ".")
	if !ok || domain == "" || name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidService, service)
	}

	if domain == publishDomain && name == publishService {
		return b.publishRaw(data)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrPublishFailed, service, err)
	}

	topic := b.topics.Service(domain, name)
	if err := b.publisher.Publish(topic, payload, b.qos, false); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, service, err)
	}

	b.logger.Debug("service call published", "service", service, "topic", topic)
	return nil
}

// publishRaw handles the mqtt.publish pseudo-service.
func (b *Bridge) publishRaw(data map[string]string) error {
	topic, ok := data["topic"]
	if !ok || topic == "" {
		return ErrMissingTopic
	}

	// An absent payload publishes an empty message.
	payload := data["payload"]

	if err := b.publisher.Publish(topic, []byte(payload), b.qos, false); err != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrPublishFailed, topic, err)
	}

	b.logger.Debug("raw publish", "topic", topic, "bytes", len(payload))
	return nil
}
