package automation

import (
	"fmt"
	"regexp"
)

// Validation constants.
const (
	// triggerPlatformEvent is the only supported trigger platform.
	triggerPlatformEvent = "event"

	// conditionKindTemplate is the only supported condition kind.
	conditionKindTemplate = "template"

	// maxDataKeys bounds service call parameters per action.
	maxDataKeys = 20

	// servicePattern matches literal service names: "domain.service".
	servicePattern = `^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`
)

var serviceRegex = regexp.MustCompile(servicePattern)

// validateTrigger checks a rule's trigger fields.
func validateTrigger(platform, eventType string) error {
	if platform != "" && platform != triggerPlatformEvent {
		return fmt.Errorf("%w: unsupported platform %q", ErrInvalidTrigger, platform)
	}
	if eventType == "" {
		return fmt.Errorf("%w: event_type is required", ErrInvalidTrigger)
	}
	return nil
}

// validateConditionKind checks the condition block's kind field.
func validateConditionKind(kind string) error {
	if kind != "" && kind != conditionKindTemplate {
		return fmt.Errorf("%w: unsupported condition %q", ErrInvalidCondition, kind)
	}
	return nil
}

// ValidateService checks a literal service name for "domain.service" form.
// Templated services are checked at dispatch time, after rendering.
func ValidateService(service string) error {
	if service == "" {
		return fmt.Errorf("%w: service is required", ErrInvalidAction)
	}
	if !serviceRegex.MatchString(service) {
		return fmt.Errorf("%w: service %q is not in domain.service form", ErrInvalidAction, service)
	}
	return nil
}
