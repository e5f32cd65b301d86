package hass

import "errors"

// Domain errors for the service bridge package.
var (
	// ErrInvalidService is returned when a rendered service name is not
	// in "domain.service" form.
	ErrInvalidService = errors.New("hass: invalid service name")

	// ErrMissingTopic is returned when an mqtt.publish call carries no
	// topic in its data.
	ErrMissingTopic = errors.New("hass: mqtt.publish requires a topic")

	// ErrPublishFailed is returned when handing the call to the broker fails.
	ErrPublishFailed = errors.New("hass: publish failed")
)
