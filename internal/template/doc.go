// Package template implements the expression language used in rule files.
//
// Rule values may embed expression spans delimited by {{ and }}. Text
// outside spans passes through verbatim; inside a span is a CEL
// expression compiled once at rule load time and evaluated per event.
//
// # Data model
//
// Expressions can reach three sources of data:
//
//	trigger.event.event_type          the triggering event's type
//	trigger.event.data["field"]       a payload field of the event
//	states("light.bedroom")           current state of a platform entity
//	is_state("switch.fan", "on")      state equality check
//	now("15:04")                      current time, Go layout string
//
// # Examples
//
//	"light.{{ trigger.event.data[\"room\"] }}"
//	"{{ trigger.event.data[\"state\"] == \"on\" ? \"turn_on\" : \"turn_off\" }}"
//	"{{ is_state(\"binary_sensor.garage_door\", \"off\") ? \"closed\" : \"open\" }}"
//
// # Failure semantics
//
// Compilation errors surface at load time and reject the whole rule
// file. Evaluation errors (a missing payload field, an unknown entity in
// states()) surface per render; the engine maps them to a failed
// dispatch for that one rule without touching its siblings.
//
//	            ┌────────────┐   Compile    ┌───────────┐
//	rule file ─>│  Evaluator │─────────────>│ Template  │ (immutable)
//	            └────────────┘              └─────┬─────┘
//	                  ▲                           │ Render / RenderBool
//	         states() │ is_state()                ▼
//	            ┌─────┴──────┐              per-event string / bool
//	            │ state.Store│
//	            └────────────┘
package template
