package automation

// Matches reports whether an event satisfies a trigger.
//
// The event type is compared with exact, case-sensitive equality. Each
// event_data constraint must be present in the payload with exactly the
// required value; extra payload fields never affect the outcome. A
// trigger with no event_data constraints matches on type alone.
//
// An empty required value only matches a field that is present and
// empty; it does not match an absent field.
func Matches(t Trigger, e Event) bool {
	if t.EventType != e.Type {
		return false
	}

	for field, want := range t.EventData {
		got, ok := e.Payload[field]
		if !ok || got != want {
			return false
		}
	}
	return true
}
