package template

import "errors"

// Domain-specific errors for template operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrCompile is returned when a template expression fails to compile.
	// Compilation happens at rule load time, never during dispatch.
	ErrCompile = errors.New("template: compile failed")

	// ErrEval is returned when a compiled template fails to evaluate.
	// Typical causes: a referenced payload field is absent from the
	// triggering event, or a state lookup failed.
	ErrEval = errors.New("template: evaluation failed")

	// ErrNotBool is returned by RenderBool when the template result
	// cannot be interpreted as a boolean.
	ErrNotBool = errors.New("template: result is not a boolean")
)
