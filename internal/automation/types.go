package automation

import (
	"time"

	"github.com/google/uuid"

	"github.com/Darknemesis98/rhasspy/internal/template"
)

// Event is a normalised occurrence flowing through the engine.
//
// Voice intents arrive as events of type "rhasspy_<IntentName>" with the
// recognised slots as payload fields. The engine itself is agnostic to
// where events come from.
type Event struct {
	// Type identifies the kind of event (e.g. "rhasspy_ChangeLightState").
	Type string

	// Payload holds the event's data fields. Values are always strings;
	// intent slots arrive as text and templates compare them as text.
	Payload map[string]string
}

// Trigger describes which events a rule reacts to.
//
// A trigger matches when the event type is exactly equal and every
// event_data constraint equals the corresponding payload field. Payload
// fields not named in EventData are ignored (partial match).
type Trigger struct {
	// Platform is the trigger kind. Only "event" is supported.
	Platform string

	// EventType is the exact event type to match.
	EventType string

	// EventData holds optional field constraints (field -> required value).
	EventData map[string]string
}

// ParamKind says whether an action parameter is fixed text or a template.
//
// The distinction is explicit in the rule file: "service" and "data" are
// always literal, "service_template" and "data_template" are always
// compiled. A literal is never re-scanned for template syntax.
type ParamKind int

const (
	// ParamLiteral is a fixed string used verbatim.
	ParamLiteral ParamKind = iota

	// ParamTemplate is a compiled template rendered per event.
	ParamTemplate
)

// ActionParam is a single action value: the service name or one data field.
type ActionParam struct {
	// Kind selects between Value-as-literal and the compiled template.
	Kind ParamKind

	// Value is the literal text, or the template source for ParamTemplate.
	Value string

	tmpl *template.Template
}

// LiteralParam builds a fixed-text parameter.
func LiteralParam(value string) ActionParam {
	return ActionParam{Kind: ParamLiteral, Value: value}
}

// TemplateParam builds a parameter from a compiled template.
func TemplateParam(tmpl *template.Template) ActionParam {
	return ActionParam{Kind: ParamTemplate, Value: tmpl.Source(), tmpl: tmpl}
}

// Resolve produces the parameter's final string for one event.
//
// Literals return their value unchanged; templates render against the
// event. A template referencing a payload field the event lacks returns
// an error wrapping template.ErrEval.
func (p ActionParam) Resolve(tc template.Context) (string, error) {
	if p.Kind == ParamLiteral {
		return p.Value, nil
	}
	return p.tmpl.Render(tc)
}

// Condition is a template gate between match and dispatch.
type Condition struct {
	// Source is the original value_template text, kept for diagnostics.
	Source string

	tmpl *template.Template
}

// Evaluate renders the condition against an event.
//
// Returns the boolean outcome, or an error wrapping template.ErrEval or
// template.ErrNotBool when the condition cannot produce a boolean.
func (c Condition) Evaluate(tc template.Context) (bool, error) {
	return c.tmpl.RenderBool(tc)
}

// Action describes the service call a rule performs when it fires.
type Action struct {
	// Service resolves to "domain.service" (e.g. "light.turn_on").
	Service ActionParam

	// Data holds the service call parameters by field name.
	Data map[string]ActionParam
}

// Rule is one automation: trigger, optional conditions, and an action.
//
// Rules are immutable after loading; a reload builds a fresh set.
type Rule struct {
	// Alias is the human-readable identifier from the rule file.
	Alias string

	// Trigger selects the events this rule reacts to.
	Trigger Trigger

	// Conditions gate dispatch after a match. All must hold (logical AND).
	// An empty slice means the rule always fires on match.
	Conditions []Condition

	// Action is performed when the trigger matches and conditions hold.
	Action Action
}

// DispatchStatus is the terminal outcome of one rule candidacy.
type DispatchStatus string

const (
	// StatusDispatched: conditions held and the service call succeeded.
	StatusDispatched DispatchStatus = "dispatched"

	// StatusConditionFalse: a condition evaluated cleanly to false.
	StatusConditionFalse DispatchStatus = "condition_false"

	// StatusConditionError: a condition failed to evaluate.
	StatusConditionError DispatchStatus = "condition_error"

	// StatusRenderFailed: the service name or a data field failed to render.
	StatusRenderFailed DispatchStatus = "render_failed"

	// StatusServiceFailed: the downstream service call returned an error.
	StatusServiceFailed DispatchStatus = "service_failed"
)

// DispatchRecord captures the outcome of evaluating one matched rule
// against one event. Records feed the audit log and telemetry.
type DispatchRecord struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	RuleAlias    string         `json:"rule_alias"`
	Service      string         `json:"service"`
	Status       DispatchStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	DispatchedAt time.Time      `json:"dispatched_at"`
	DurationMS   int            `json:"duration_ms"`
}

// Ruleset is an immutable, loaded collection of rules indexed by event
// type. Lookup preserves the rule file's declaration order.
type Ruleset struct {
	rules   []*Rule
	byEvent map[string][]*Rule
}

// newRuleset indexes rules by trigger event type, keeping file order.
func newRuleset(rules []*Rule) *Ruleset {
	rs := &Ruleset{
		rules:   rules,
		byEvent: make(map[string][]*Rule),
	}
	for _, r := range rules {
		rs.byEvent[r.Trigger.EventType] = append(rs.byEvent[r.Trigger.EventType], r)
	}
	return rs
}

// Lookup returns the rules triggered by an event type, in declaration order.
// Callers must not modify the returned slice.
func (rs *Ruleset) Lookup(eventType string) []*Rule {
	return rs.byEvent[eventType]
}

// Rules returns all rules in declaration order.
func (rs *Ruleset) Rules() []*Rule {
	return rs.rules
}

// Len returns the number of rules in the set.
func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// GenerateID creates a new UUID for a dispatch record.
func GenerateID() string {
	return uuid.New().String()
}
