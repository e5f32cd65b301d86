package automation

import "errors"

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrLoadFailed) {
//	    // keep the previous ruleset
//	}
var (
	// ErrLoadFailed is returned when a rule file cannot be loaded.
	// No part of the file takes effect: loading is all-or-nothing.
	ErrLoadFailed = errors.New("rules: load failed")

	// ErrInvalidRule is returned when a rule fails validation.
	ErrInvalidRule = errors.New("rules: invalid rule")

	// ErrInvalidTrigger is returned when a rule's trigger is invalid.
	ErrInvalidTrigger = errors.New("rules: invalid trigger")

	// ErrInvalidCondition is returned when a rule's condition is invalid.
	ErrInvalidCondition = errors.New("rules: invalid condition")

	// ErrInvalidAction is returned when a rule's action is invalid.
	ErrInvalidAction = errors.New("rules: invalid action")
)
