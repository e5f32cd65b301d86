package automation

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Darknemesis98/rhasspy/internal/template"
)

// ruleSpec is the YAML shape of one rule in the rule file.
type ruleSpec struct {
	Alias     string        `yaml:"alias"`
	Trigger   triggerSpec   `yaml:"trigger"`
	Condition conditionList `yaml:"condition"`
	Action    actionSpec    `yaml:"action"`
}

// triggerSpec is the YAML shape of a trigger block.
type triggerSpec struct {
	Platform  string         `yaml:"platform"`
	EventType string         `yaml:"event_type"`
	EventData map[string]any `yaml:"event_data"`
}

// conditionSpec is the YAML shape of one condition block.
type conditionSpec struct {
	Condition     string `yaml:"condition"`
	ValueTemplate string `yaml:"value_template"`
}

// conditionList accepts either a single condition mapping or a sequence
// of them. Multiple conditions are conjoined.
type conditionList []conditionSpec

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *conditionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var specs []conditionSpec
		if err := node.Decode(&specs); err != nil {
			return err
		}
		*l = specs
		return nil
	case yaml.MappingNode:
		var spec conditionSpec
		if err := node.Decode(&spec); err != nil {
			return err
		}
		*l = conditionList{spec}
		return nil
	default:
		return fmt.Errorf("condition must be a mapping or a sequence")
	}
}

// actionSpec is the YAML shape of an action block.
//
// Exactly one of service/service_template must be set. The data map is
// literal; the data_template map is rendered per event. A field may not
// appear in both.
type actionSpec struct {
	Service         string         `yaml:"service"`
	ServiceTemplate string         `yaml:"service_template"`
	Data            map[string]any `yaml:"data"`
	DataTemplate    map[string]any `yaml:"data_template"`
}

// LoadFile reads, validates, and compiles a rule file.
//
// Loading is all-or-nothing: any invalid rule or broken template rejects
// the entire file, and the error names the offending rule. On success the
// returned Ruleset is fully compiled and immutable.
//
// Parameters:
//   - path: Path to the YAML rule file
//   - evaluator: Template evaluator rules compile against
//
// Returns:
//   - *Ruleset: Loaded and indexed rules
//   - error: Wrapping ErrLoadFailed, with the offending rule's alias
func LoadFile(path string, evaluator *template.Evaluator) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadFailed, path, err)
	}

	var specs []ruleSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrLoadFailed, path, err)
	}

	rules := make([]*Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := buildRule(spec, i, evaluator)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: %w", ErrLoadFailed, aliasOf(spec, i), err)
		}
		rules = append(rules, rule)
	}

	return newRuleset(rules), nil
}

// aliasOf returns a rule's alias, falling back to its file position.
func aliasOf(spec ruleSpec, index int) string {
	if spec.Alias != "" {
		return spec.Alias
	}
	return "rule " + strconv.Itoa(index+1)
}

// buildRule validates one spec and compiles its templates.
func buildRule(spec ruleSpec, index int, evaluator *template.Evaluator) (*Rule, error) {
	if err := validateTrigger(spec.Trigger.Platform, spec.Trigger.EventType); err != nil {
		return nil, err
	}

	rule := &Rule{
		Alias: aliasOf(spec, index),
		Trigger: Trigger{
			Platform:  triggerPlatformEvent,
			EventType: spec.Trigger.EventType,
			EventData: stringifyMap(spec.Trigger.EventData),
		},
	}

	// Conditions
	for _, cs := range spec.Condition {
		cond, err := buildCondition(cs, evaluator)
		if err != nil {
			return nil, err
		}
		rule.Conditions = append(rule.Conditions, cond)
	}

	// Action
	action, err := buildAction(spec.Action, evaluator)
	if err != nil {
		return nil, err
	}
	rule.Action = action

	return rule, nil
}

// buildCondition validates and compiles one condition block.
func buildCondition(spec conditionSpec, evaluator *template.Evaluator) (Condition, error) {
	if err := validateConditionKind(spec.Condition); err != nil {
		return Condition{}, err
	}
	if spec.ValueTemplate == "" {
		return Condition{}, fmt.Errorf("%w: value_template is required", ErrInvalidCondition)
	}

	tmpl, err := evaluator.Compile(spec.ValueTemplate)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %w", ErrInvalidCondition, err)
	}

	return Condition{Source: spec.ValueTemplate, tmpl: tmpl}, nil
}

// buildAction validates and compiles one action block.
func buildAction(spec actionSpec, evaluator *template.Evaluator) (Action, error) {
	var action Action

	// Service: exactly one of the literal and templated forms.
	switch {
	case spec.Service != "" && spec.ServiceTemplate != "":
		return Action{}, fmt.Errorf("%w: service and service_template are mutually exclusive", ErrInvalidAction)
	case spec.Service != "":
		if err := ValidateService(spec.Service); err != nil {
			return Action{}, err
		}
		action.Service = LiteralParam(spec.Service)
	case spec.ServiceTemplate != "":
		tmpl, err := evaluator.Compile(spec.ServiceTemplate)
		if err != nil {
			return Action{}, fmt.Errorf("%w: service_template: %w", ErrInvalidAction, err)
		}
		action.Service = TemplateParam(tmpl)
	default:
		return Action{}, fmt.Errorf("%w: one of service or service_template is required", ErrInvalidAction)
	}

	// Data: literal fields and templated fields, disjoint by name.
	if len(spec.Data)+len(spec.DataTemplate) > maxDataKeys {
		return Action{}, fmt.Errorf("%w: data exceeds %d keys", ErrInvalidAction, maxDataKeys)
	}

	action.Data = make(map[string]ActionParam, len(spec.Data)+len(spec.DataTemplate))
	for field, raw := range spec.Data {
		action.Data[field] = LiteralParam(stringify(raw))
	}
	for field, raw := range spec.DataTemplate {
		if _, dup := action.Data[field]; dup {
			return Action{}, fmt.Errorf("%w: field %q in both data and data_template", ErrInvalidAction, field)
		}
		tmpl, err := evaluator.Compile(stringify(raw))
		if err != nil {
			return Action{}, fmt.Errorf("%w: data_template.%s: %w", ErrInvalidAction, field, err)
		}
		action.Data[field] = TemplateParam(tmpl)
	}

	return action, nil
}

// stringifyMap converts YAML scalar values to their string form.
func stringifyMap(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = stringify(v)
	}
	return out
}

// stringify renders a YAML scalar as the string templates compare against.
func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case bool:
		return strconv.FormatBool(n)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", n)
	}
}
