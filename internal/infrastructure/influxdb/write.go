package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordDispatch writes a single rule dispatch measurement.
//
// This is the primary telemetry hook for the automation engine. Each
// candidate rule evaluated against an event produces one point tagged
// with the event type, rule alias, and terminal status. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - eventType: The event that matched the rule (e.g., "rhasspy_ChangeLightState")
//   - ruleAlias: Human-readable rule identifier from the rule file
//   - status: Terminal dispatch status (dispatched, condition_false, ...)
//   - duration: Wall-clock time from match to terminal status
//
// Example:
//
//	client.RecordDispatch("rhasspy_ChangeLightState", "Change light state", "dispatched", 12*time.Millisecond)
func (c *Client) RecordDispatch(eventType, ruleAlias, status string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rule_dispatch",
		map[string]string{
			"event_type": eventType,
			"rule_alias": ruleAlias,
			"status":     status,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordEvent writes a counter point for a received event.
//
// Used for tracking intent volume independent of whether any rule matched.
//
// Parameters:
//   - eventType: The normalised event type
//   - matched: Number of candidate rules the event matched
func (c *Client) RecordEvent(eventType string, matched int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"events",
		map[string]string{
			"event_type": eventType,
		},
		map[string]interface{}{
			"matched_rules": matched,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
