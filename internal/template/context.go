package template

// Context carries the per-render data a template can reference.
//
// Templates see the triggering event under the "trigger" variable:
//
//	trigger.event.event_type    the normalised event type
//	trigger.event.data          the event payload (field -> value)
//
// Platform state and the clock are not part of the Context; they are
// reached through the states(), is_state() and now() functions bound
// into the Evaluator at construction time.
type Context struct {
	// EventType is the normalised type of the triggering event.
	EventType string

	// Payload holds the event's data fields (e.g. intent slots).
	Payload map[string]string
}

// activation builds the CEL activation map for a render.
func (c Context) activation() map[string]any {
	data := make(map[string]any, len(c.Payload))
	for k, v := range c.Payload {
		data[k] = v
	}

	return map[string]any{
		"trigger": map[string]any{
			"event": map[string]any{
				"event_type": c.EventType,
				"data":       data,
			},
		},
	}
}
