package automation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockCaller captures dispatched service calls.
type mockCaller struct {
	calls  []serviceCall
	mu     sync.Mutex
	failOn string // Service to fail on (for error testing)
}

type serviceCall struct {
	Service     string
	Data        map[string]string
	HadDeadline bool
}

func (m *mockCaller) CallService(ctx context.Context, service string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn != "" && service == m.failOn {
		return errors.New("downstream unavailable")
	}

	_, hasDeadline := ctx.Deadline()
	m.calls = append(m.calls, serviceCall{Service: service, Data: data, HadDeadline: hasDeadline})
	return nil
}

func (m *mockCaller) getCalls() []serviceCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := make([]serviceCall, len(m.calls))
	copy(cpy, m.calls)
	return cpy
}

// mockDispatchRepo collects persisted dispatch records.
type mockDispatchRepo struct {
	records []DispatchRecord
	mu      sync.Mutex
	fail    bool
}

func (m *mockDispatchRepo) CreateDispatch(_ context.Context, rec *DispatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("database unavailable")
	}
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockDispatchRepo) getRecords() []DispatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := make([]DispatchRecord, len(m.records))
	copy(cpy, m.records)
	return cpy
}

// mockTelemetry counts metric calls.
type mockTelemetry struct {
	dispatches []string // statuses in order
	events     []int    // matched counts in order
	mu         sync.Mutex
}

func (m *mockTelemetry) RecordDispatch(_, _, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches = append(m.dispatches, status)
}

func (m *mockTelemetry) RecordEvent(_ string, matched int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, matched)
}

// ─── Helper ─────────────────────────────────────────────────────────────────

func setupEngine(t *testing.T, rules string) (*Engine, *mockCaller, *mockDispatchRepo, *mockTelemetry) {
	t.Helper()

	reg := NewRegistry(writeRuleFile(t, rules), newTestEvaluator(t))
	if err := reg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	caller := &mockCaller{}
	repo := &mockDispatchRepo{}
	tel := &mockTelemetry{}
	engine := NewEngine(reg, caller, repo, tel, nil)
	return engine, caller, repo, tel
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestEngineDispatch(t *testing.T) {
	engine, caller, repo, tel := setupEngine(t, `
- alias: Light control
  trigger:
    event_type: rhasspy_ChangeLightState
  action:
    service_template: "light.turn_{{ trigger.event.data.state }}"
    data:
      entity_id: light.kitchen
    data_template:
      transition: "{{ trigger.event.data.state == 'on' ? '2' : '0' }}"
`)

	records := engine.HandleEvent(context.Background(), Event{
		Type:    "rhasspy_ChangeLightState",
		Payload: map[string]string{"name": "kitchen", "state": "on"},
	})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != StatusDispatched {
		t.Fatalf("status = %q, want %q (error: %s)", rec.Status, StatusDispatched, rec.Error)
	}
	if rec.Service != "light.turn_on" {
		t.Errorf("record service = %q, want light.turn_on", rec.Service)
	}
	if rec.ID == "" {
		t.Error("record ID is empty")
	}

	calls := caller.getCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 service call, got %d", len(calls))
	}
	call := calls[0]
	if call.Service != "light.turn_on" {
		t.Errorf("service = %q, want light.turn_on", call.Service)
	}
	if call.Data["entity_id"] != "light.kitchen" {
		t.Errorf("entity_id = %q, want light.kitchen", call.Data["entity_id"])
	}
	if call.Data["transition"] != "2" {
		t.Errorf("transition = %q, want 2", call.Data["transition"])
	}
	if !call.HadDeadline {
		t.Error("service call context has no deadline")
	}

	// Persisted and counted.
	if persisted := repo.getRecords(); len(persisted) != 1 || persisted[0].ID != rec.ID {
		t.Errorf("dispatch record not persisted: %+v", persisted)
	}
	if len(tel.dispatches) != 1 || tel.dispatches[0] != string(StatusDispatched) {
		t.Errorf("telemetry dispatches = %v", tel.dispatches)
	}
	if len(tel.events) != 1 || tel.events[0] != 1 {
		t.Errorf("telemetry events = %v", tel.events)
	}
}

func TestEngineNoMatch(t *testing.T) {
	engine, caller, _, tel := setupEngine(t, `
- alias: Light control
  trigger:
    event_type: rhasspy_ChangeLightState
    event_data:
      name: kitchen
  action:
    service: light.turn_on
`)

	// Unknown event type.
	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_GetTime"})
	if len(records) != 0 {
		t.Errorf("expected no records for unknown type, got %d", len(records))
	}

	// Known type but event_data mismatch.
	records = engine.HandleEvent(context.Background(), Event{
		Type:    "rhasspy_ChangeLightState",
		Payload: map[string]string{"name": "bedroom"},
	})
	if len(records) != 0 {
		t.Errorf("expected no records on event_data mismatch, got %d", len(records))
	}

	if len(caller.getCalls()) != 0 {
		t.Error("no service should be called")
	}
	if len(tel.events) != 2 || tel.events[0] != 0 || tel.events[1] != 0 {
		t.Errorf("telemetry events = %v, want [0 0]", tel.events)
	}
}

func TestEngineConditionFalse(t *testing.T) {
	engine, caller, _, _ := setupEngine(t, `
- alias: Guarded light
  trigger:
    event_type: rhasspy_ChangeLightState
  condition:
    condition: template
    value_template: "{{ is_state('light.bedroom', 'off') }}"
  action:
    service: light.turn_on
`)

	// The fixture cache has light.bedroom = on, so the condition is false.
	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_ChangeLightState"})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusConditionFalse {
		t.Errorf("status = %q, want %q", records[0].Status, StatusConditionFalse)
	}
	if records[0].Error != "" {
		t.Errorf("clean decline should carry no error, got %q", records[0].Error)
	}
	if len(caller.getCalls()) != 0 {
		t.Error("service must not be called when a condition is false")
	}
}

func TestEngineConditionError(t *testing.T) {
	engine, caller, _, _ := setupEngine(t, `
- alias: Broken gate
  trigger:
    event_type: rhasspy_GetTime
  condition:
    condition: template
    value_template: "{{ trigger.event.data.missing == 'x' }}"
  action:
    service: tts.say
`)

	// The payload lacks the field the condition references.
	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_GetTime"})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusConditionError {
		t.Errorf("status = %q, want %q", records[0].Status, StatusConditionError)
	}
	if records[0].Error == "" {
		t.Error("condition_error should carry the evaluation error")
	}
	if len(caller.getCalls()) != 0 {
		t.Error("service must not be called when a condition errors")
	}
}

func TestEngineRenderFailed(t *testing.T) {
	engine, caller, _, _ := setupEngine(t, `
- alias: Bad data template
  trigger:
    event_type: rhasspy_ChangeLightState
  action:
    service: light.turn_on
    data:
      entity_id: light.kitchen
    data_template:
      brightness: "{{ trigger.event.data.brightness }}"
`)

	// No brightness slot: the data field cannot render, and because all
	// fields resolve before any side effect the call never happens.
	records := engine.HandleEvent(context.Background(), Event{
		Type:    "rhasspy_ChangeLightState",
		Payload: map[string]string{"name": "kitchen"},
	})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusRenderFailed {
		t.Errorf("status = %q, want %q", records[0].Status, StatusRenderFailed)
	}
	if len(caller.getCalls()) != 0 {
		t.Error("no side effect may precede a failed render")
	}
}

func TestEngineServiceTemplateRenderFailed(t *testing.T) {
	engine, caller, _, _ := setupEngine(t, `
- alias: Bad service template
  trigger:
    event_type: rhasspy_ChangeLightState
  action:
    service_template: "light.turn_{{ trigger.event.data.state }}"
`)

	records := engine.HandleEvent(context.Background(), Event{
		Type:    "rhasspy_ChangeLightState",
		Payload: map[string]string{"name": "kitchen"},
	})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusRenderFailed {
		t.Errorf("status = %q, want %q", records[0].Status, StatusRenderFailed)
	}
	if len(caller.getCalls()) != 0 {
		t.Error("no service call after a failed service render")
	}
}

func TestEngineServiceFailed(t *testing.T) {
	engine, caller, _, _ := setupEngine(t, `
- alias: Light control
  trigger:
    event_type: rhasspy_ChangeLightState
  action:
    service: light.turn_on
`)
	caller.failOn = "light.turn_on"

	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_ChangeLightState"})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusServiceFailed {
		t.Errorf("status = %q, want %q", records[0].Status, StatusServiceFailed)
	}
	if records[0].Error == "" {
		t.Error("service_failed should carry the call error")
	}
}

func TestEngineCandidateIsolation(t *testing.T) {
	// Three rules on the same event: the middle one's service fails, its
	// siblings must still run, in declaration order.
	engine, caller, repo, _ := setupEngine(t, `
- alias: First
  trigger:
    event_type: rhasspy_Goodnight
  action:
    service: light.turn_off

- alias: Second
  trigger:
    event_type: rhasspy_Goodnight
  action:
    service: media_player.turn_off

- alias: Third
  trigger:
    event_type: rhasspy_Goodnight
  action:
    service: lock.lock
`)
	caller.failOn = "media_player.turn_off"

	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_Goodnight"})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	wantStatus := []DispatchStatus{StatusDispatched, StatusServiceFailed, StatusDispatched}
	wantAlias := []string{"First", "Second", "Third"}
	for i, rec := range records {
		if rec.RuleAlias != wantAlias[i] {
			t.Errorf("record %d alias = %q, want %q", i, rec.RuleAlias, wantAlias[i])
		}
		if rec.Status != wantStatus[i] {
			t.Errorf("record %d status = %q, want %q", i, rec.Status, wantStatus[i])
		}
	}

	calls := caller.getCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 successful calls, got %d", len(calls))
	}
	if calls[0].Service != "light.turn_off" || calls[1].Service != "lock.lock" {
		t.Errorf("calls out of order: %q, %q", calls[0].Service, calls[1].Service)
	}

	// Every terminal status is persisted, failures included.
	if persisted := repo.getRecords(); len(persisted) != 3 {
		t.Errorf("persisted records = %d, want 3", len(persisted))
	}
}

func TestEngineRepositoryFailureDoesNotAbort(t *testing.T) {
	engine, caller, repo, _ := setupEngine(t, `
- alias: First
  trigger:
    event_type: rhasspy_GetTime
  action:
    service: tts.say

- alias: Second
  trigger:
    event_type: rhasspy_GetTime
  action:
    service: tts.say
`)
	repo.fail = true

	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_GetTime"})
	if len(records) != 2 {
		t.Fatalf("expected 2 records despite repo failure, got %d", len(records))
	}
	if len(caller.getCalls()) != 2 {
		t.Errorf("service calls = %d, want 2", len(caller.getCalls()))
	}
}

// ─── End-to-End Rule Scenarios ──────────────────────────────────────────────

func TestEngineLightOnOffByName(t *testing.T) {
	rules := `
- alias: Switch lights on and off
  trigger:
    event_type: rhasspy_ChangeLightState
  action:
    service_template: "switch.turn_{{ trigger.event.data.state }}"
    data_template:
      entity_id: 'switch.{{ trigger.event.data.name.replace(" ", "_") }}'
`

	tests := []struct {
		state       string
		wantService string
	}{
		{"on", "switch.turn_on"},
		{"off", "switch.turn_off"},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			engine, caller, _, _ := setupEngine(t, rules)

			records := engine.HandleEvent(context.Background(), Event{
				Type:    "rhasspy_ChangeLightState",
				Payload: map[string]string{"name": "living room lamp", "state": tt.state},
			})
			if len(records) != 1 || records[0].Status != StatusDispatched {
				t.Fatalf("records = %+v", records)
			}

			call := caller.getCalls()[0]
			if call.Service != tt.wantService {
				t.Errorf("service = %q, want %q", call.Service, tt.wantService)
			}
			if call.Data["entity_id"] != "switch.living_room_lamp" {
				t.Errorf("entity_id = %q, want switch.living_room_lamp", call.Data["entity_id"])
			}
		})
	}
}

func TestEngineColorLookup(t *testing.T) {
	engine, caller, _, _ := setupEngine(t, `
- alias: Bedroom light colour
  trigger:
    event_type: rhasspy_ChangeLightColor
    event_data:
      name: bedroom light
  action:
    service: mqtt.publish
    data:
      topic: bedroom_light/set
    data_template:
      payload: '{{ {"red": "on,255,0,0", "green": "on,0,255,0"}[trigger.event.data.color] }}'
`)

	records := engine.HandleEvent(context.Background(), Event{
		Type:    "rhasspy_ChangeLightColor",
		Payload: map[string]string{"name": "bedroom light", "color": "red"},
	})
	if len(records) != 1 || records[0].Status != StatusDispatched {
		t.Fatalf("records = %+v", records)
	}

	call := caller.getCalls()[0]
	if call.Service != "mqtt.publish" {
		t.Errorf("service = %q, want mqtt.publish", call.Service)
	}
	if call.Data["topic"] != "bedroom_light/set" {
		t.Errorf("topic = %q, want bedroom_light/set", call.Data["topic"])
	}
	if call.Data["payload"] != "on,255,0,0" {
		t.Errorf("payload = %q, want on,255,0,0", call.Data["payload"])
	}
}

func TestEngineGarageStateAnnouncement(t *testing.T) {
	// The fixture cache reports binary_sensor.garage_door = off (closed).
	engine, caller, _, _ := setupEngine(t, `
- alias: Garage door status by voice
  trigger:
    event_type: rhasspy_GetGarageState
  action:
    service: mqtt.publish
    data:
      topic: hermes/tts/say
    data_template:
      payload: >-
        {"text": "the garage door is
        {{ is_state("binary_sensor.garage_door", "off") ? "closed" : "open" }}"}
`)

	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_GetGarageState"})
	if len(records) != 1 || records[0].Status != StatusDispatched {
		t.Fatalf("records = %+v", records)
	}

	payload := caller.getCalls()[0].Data["payload"]
	if !strings.Contains(payload, "closed") {
		t.Errorf("payload %q should report a closed door", payload)
	}
}

func TestEngineNilOptionalDependencies(t *testing.T) {
	reg := NewRegistry(writeRuleFile(t, `
- alias: Bare
  trigger:
    event_type: rhasspy_GetTime
  action:
    service: tts.say
`), newTestEvaluator(t))
	if err := reg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	caller := &mockCaller{}
	engine := NewEngine(reg, caller, nil, nil, nil)

	records := engine.HandleEvent(context.Background(), Event{Type: "rhasspy_GetTime"})
	if len(records) != 1 || records[0].Status != StatusDispatched {
		t.Errorf("dispatch without repo/telemetry failed: %+v", records)
	}
}
