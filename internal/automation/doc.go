// Package automation provides the rule-matching and dispatch engine.
//
// Rules are declared in a YAML file: an event trigger, optional template
// conditions, and a service call action. The engine evaluates every
// incoming event against the active ruleset and dispatches the actions
// of the rules that match.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────────┐
//	│                  Engine (engine.go)                    │
//	│  Evaluates events against the active ruleset           │
//	│  ┌──────────────┐     ┌──────────────┐                 │
//	│  │   Registry   │────▶│  Repository  │                 │
//	│  │(registry.go) │     │(repository.go)│                │
//	│  └──────────────┘     └──────────────┘                 │
//	│        │                                               │
//	│        ▼                                               │
//	│  ┌──────────────────────────────────────────────┐      │
//	│  │  Dispatch Pipeline (per matched rule)        │      │
//	│  │  1. Match trigger (type + event_data)        │      │
//	│  │  2. Evaluate conditions (template gate)      │      │
//	│  │  3. Render service name and data fields      │      │
//	│  │  4. Call service with bounded timeout        │      │
//	│  │  5. Record terminal status (audit + metrics) │      │
//	│  └──────────────────────────────────────────────┘      │
//	└────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Rule: Trigger, conditions, and action loaded from the rule file
//   - Ruleset: Immutable snapshot of all rules, indexed by event type
//   - Registry: Atomic active-ruleset holder with all-or-nothing reload
//   - Engine: Evaluates events; one terminal status per matched rule
//   - DispatchRecord: Audit record of one candidate's outcome
//
// # Failure Isolation
//
// Matched rules are independent. A condition error, a failed render, or
// a failed service call is recorded against that one rule; siblings
// matched by the same event still dispatch.
//
// Dispatch is sequential in rule file order. When two rules fired by the
// same event target the same entity with conflicting values there is no
// conflict resolution: the later delivery wins.
//
// # Usage
//
//	registry := automation.NewRegistry(cfg.Rules.Path, evaluator)
//	registry.SetLogger(log)
//	if err := registry.Load(); err != nil {
//	    return err
//	}
//
//	engine := automation.NewEngine(registry, bridge, repo, telemetry, log)
//	records := engine.HandleEvent(ctx, event)
package automation
