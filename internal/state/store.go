package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Darknemesis98/rhasspy/internal/infrastructure/mqtt"
)

// Store is an in-memory cache of entity states fed from the statestream.
//
// Every read is served from memory, so template functions that consult
// platform state never block on the network. The broker replays retained
// statestream messages on subscribe, which warms the cache at startup.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	mu       sync.RWMutex
	entities map[string]string
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// NewStore creates an empty state store.
func NewStore() *Store {
	return &Store{
		entities: make(map[string]string),
	}
}

// Get returns the current state value of an entity.
//
// Parameters:
//   - entityID: Entity identifier in domain.object form (e.g. "light.bedroom")
//
// Returns:
//   - string: The entity's last reported state
//   - error: ErrEntityNotFound if the entity has never reported
func (s *Store) Get(entityID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entities[entityID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}
	return value, nil
}

// IsState reports whether an entity's current state equals value.
// Unknown entities compare as false, never as an error.
func (s *Store) IsState(entityID, value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current, ok := s.entities[entityID]
	return ok && current == value
}

// Set records the current state of an entity, replacing any prior value.
func (s *Store) Set(entityID, value string) {
	s.mu.Lock()
	s.entities[entityID] = value
	s.mu.Unlock()
}

// Len returns the number of entities with a cached state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Subscriber is the subset of the MQTT client the store needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Subscribe attaches the store to the statestream topic.
//
// The statestream mirrors entity state as retained messages on
// homeassistant/statestream/{domain}/{object}/state; the payload is the
// bare state value. Attribute topics under the same prefix are ignored.
//
// Parameters:
//   - client: MQTT subscriber
//   - topic: Statestream wildcard pattern (e.g. "homeassistant/statestream/#")
//   - qos: Subscription QoS
//   - logger: Optional logger (nil for silent operation)
//
// Returns:
//   - error: If the subscription fails
func (s *Store) Subscribe(client Subscriber, topic string, qos byte, logger Logger) error {
	if logger == nil {
		logger = noopLogger{}
	}

	return client.Subscribe(topic, qos, func(msgTopic string, payload []byte) error {
		entityID, ok := parseStateTopic(msgTopic)
		if !ok {
			// Attribute topics and other statestream noise.
			return nil
		}

		value := string(payload)
		s.Set(entityID, value)
		logger.Debug("entity state updated", "entity_id", entityID, "state", value)
		return nil
	})
}

// parseStateTopic extracts an entity ID from a statestream state topic.
//
// Topic form: {prefix...}/{domain}/{object}/state
// Returns "domain.object" and true, or "" and false for non-state topics.
func parseStateTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-1] != "state" {
		return "", false
	}

	domain := parts[len(parts)-3]
	object := parts[len(parts)-2]
	if domain == "" || object == "" {
		return "", false
	}
	return domain + "." + object, true
}
