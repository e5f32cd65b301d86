package automation

import (
	"context"
	"time"

	"github.com/Darknemesis98/rhasspy/internal/template"
)

// ServiceCaller is the interface for dispatching resolved service calls.
type ServiceCaller interface {
	// CallService performs a service call with the rendered parameters.
	// The service is in "domain.service" form.
	CallService(ctx context.Context, service string, data map[string]string) error
}

// Telemetry is the interface for recording dispatch metrics.
// Implementations must not block; the engine calls these inline.
type Telemetry interface {
	// RecordDispatch records one candidate rule's terminal status.
	RecordDispatch(eventType, ruleAlias, status string, duration time.Duration)

	// RecordEvent records a received event and how many rules it matched.
	RecordEvent(eventType string, matched int)
}

// DispatchRepository is the interface for persisting dispatch records.
type DispatchRepository interface {
	CreateDispatch(ctx context.Context, rec *DispatchRecord) error
}

// defaultDispatchTimeout bounds a single service call when no timeout
// is configured. A slow collaborator must not stall sibling candidates.
const defaultDispatchTimeout = 500 * time.Millisecond

// Engine evaluates incoming events against the active ruleset.
//
// For each event it looks up candidate rules by type, applies the
// event_data match, gates on conditions, renders the action, and
// dispatches the service call. Candidates are independent: one rule's
// failure is recorded and its siblings proceed untouched.
//
// Thread Safety: HandleEvent is safe for concurrent use.
type Engine struct {
	registry  *Registry
	caller    ServiceCaller
	repo      DispatchRepository // optional audit log
	telemetry Telemetry          // optional metrics
	logger    Logger
	timeout   time.Duration
}

// NewEngine creates an event dispatch engine.
//
// Parameters:
//   - registry: Active ruleset and reload lifecycle
//   - caller: Downstream service dispatcher
//   - repo: Repository for the dispatch audit log (may be nil)
//   - telemetry: Metrics sink (may be nil)
//   - logger: Logger instance (may be nil)
func NewEngine(registry *Registry, caller ServiceCaller, repo DispatchRepository, telemetry Telemetry, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		registry:  registry,
		caller:    caller,
		repo:      repo,
		telemetry: telemetry,
		logger:    logger,
		timeout:   defaultDispatchTimeout,
	}
}

// SetDispatchTimeout overrides the per-candidate service call timeout.
func (e *Engine) SetDispatchTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// HandleEvent evaluates an event against the active ruleset.
//
// Candidate rules are processed in rule file declaration order. Each
// candidate reaches exactly one terminal status; every terminal status
// is recorded, persisted, and counted. An event matching no rules is a
// normal no-op.
//
// Parameters:
//   - ctx: Context for cancellation; each service call additionally
//     gets the configured dispatch timeout
//   - ev: The normalised event
//
// Returns:
//   - []DispatchRecord: One record per matched candidate, in order
func (e *Engine) HandleEvent(ctx context.Context, ev Event) []DispatchRecord {
	candidates := e.registry.Lookup(ev.Type)

	var records []DispatchRecord
	for _, rule := range candidates {
		if !Matches(rule.Trigger, ev) {
			continue
		}

		rec := e.dispatch(ctx, rule, ev)
		records = append(records, rec)

		if e.repo != nil {
			if err := e.repo.CreateDispatch(ctx, &rec); err != nil {
				e.logger.Error("failed to persist dispatch record",
					"rule", rule.Alias, "error", err)
			}
		}
		if e.telemetry != nil {
			e.telemetry.RecordDispatch(ev.Type, rule.Alias, string(rec.Status),
				time.Duration(rec.DurationMS)*time.Millisecond)
		}
	}

	if e.telemetry != nil {
		e.telemetry.RecordEvent(ev.Type, len(records))
	}

	e.logger.Debug("event handled",
		"event_type", ev.Type,
		"candidates", len(candidates),
		"matched", len(records),
	)

	return records
}

// dispatch runs one matched rule to its terminal status.
func (e *Engine) dispatch(ctx context.Context, rule *Rule, ev Event) DispatchRecord {
	started := time.Now().UTC()
	tc := template.Context{EventType: ev.Type, Payload: ev.Payload}

	rec := DispatchRecord{
		ID:           GenerateID(),
		EventType:    ev.Type,
		RuleAlias:    rule.Alias,
		Service:      rule.Action.Service.Value,
		DispatchedAt: started,
	}

	finish := func(status DispatchStatus, err error) DispatchRecord {
		rec.Status = status
		if err != nil {
			rec.Error = err.Error()
		}
		rec.DurationMS = int(time.Since(started).Milliseconds())
		return rec
	}

	// Condition gate. False and error are distinct outcomes: false is a
	// clean decline, error means the gate itself could not be evaluated.
	for _, cond := range rule.Conditions {
		ok, err := cond.Evaluate(tc)
		if err != nil {
			e.logger.Warn("condition failed to evaluate",
				"rule", rule.Alias, "condition", cond.Source, "error", err)
			return finish(StatusConditionError, err)
		}
		if !ok {
			return finish(StatusConditionFalse, nil)
		}
	}

	// Resolve the service name.
	service, err := rule.Action.Service.Resolve(tc)
	if err != nil {
		e.logger.Warn("service template failed to render",
			"rule", rule.Alias, "error", err)
		return finish(StatusRenderFailed, err)
	}
	rec.Service = service

	// Resolve all data fields before any side effect.
	data := make(map[string]string, len(rule.Action.Data))
	for field, param := range rule.Action.Data {
		value, err := param.Resolve(tc)
		if err != nil {
			e.logger.Warn("data template failed to render",
				"rule", rule.Alias, "field", field, "error", err)
			return finish(StatusRenderFailed, err)
		}
		data[field] = value
	}

	// Dispatch with a bounded timeout.
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.caller.CallService(callCtx, service, data); err != nil {
		e.logger.Error("service call failed",
			"rule", rule.Alias, "service", service, "error", err)
		return finish(StatusServiceFailed, err)
	}

	e.logger.Info("rule dispatched",
		"rule", rule.Alias,
		"event_type", ev.Type,
		"service", service,
	)
	return finish(StatusDispatched, nil)
}
