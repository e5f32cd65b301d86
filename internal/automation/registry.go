package automation

import (
	"sync/atomic"

	"github.com/Darknemesis98/rhasspy/internal/template"
)

// Logger defines the logging interface used by the Registry and Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns the active ruleset and its reload lifecycle.
//
// The active Ruleset is swapped atomically: readers mid-event keep the
// set they started with, and a failed reload leaves the previous set
// serving. Lookups are a single atomic load plus a map read.
//
// All public methods are thread-safe.
type Registry struct {
	path      string
	evaluator *template.Evaluator
	current   atomic.Pointer[Ruleset]
	logger    Logger
}

// NewRegistry creates an empty registry for the given rule file.
// Call Load before serving events.
func NewRegistry(path string, evaluator *template.Evaluator) *Registry {
	r := &Registry{
		path:      path,
		evaluator: evaluator,
		logger:    noopLogger{},
	}
	r.current.Store(newRuleset(nil))
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads and compiles the rule file, then swaps it in.
//
// On any error the active ruleset is untouched: a broken edit can never
// degrade a running engine. Used for both initial load and SIGHUP reload.
//
// Returns:
//   - error: Wrapping ErrLoadFailed, naming the offending rule
func (r *Registry) Load() error {
	ruleset, err := LoadFile(r.path, r.evaluator)
	if err != nil {
		r.logger.Error("rule file rejected", "path", r.path, "error", err)
		return err
	}

	r.current.Store(ruleset)
	r.logger.Info("rules loaded", "path", r.path, "count", ruleset.Len())
	return nil
}

// Lookup returns the active rules for an event type, in declaration order.
func (r *Registry) Lookup(eventType string) []*Rule {
	return r.current.Load().Lookup(eventType)
}

// Ruleset returns the currently active ruleset.
func (r *Registry) Ruleset() *Ruleset {
	return r.current.Load()
}

// RuleCount returns the number of active rules.
func (r *Registry) RuleCount() int {
	return r.current.Load().Len()
}
