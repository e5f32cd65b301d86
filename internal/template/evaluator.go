package template

import (
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

// StateAccessor provides read access to the current entity state cache.
//
// Implementations must be safe for concurrent use; templates are rendered
// from MQTT handler goroutines.
type StateAccessor interface {
	// Get returns the current state value of an entity.
	// Returns an error if the entity has never reported state.
	Get(entityID string) (string, error)

	// IsState reports whether an entity's current state equals value.
	// Unknown entities compare as false, never as an error.
	IsState(entityID, value string) bool
}

// Evaluator compiles and owns the environment for template expressions.
//
// The state accessor and clock are bound into the CEL environment once at
// construction; only the triggering event varies per render. This keeps
// compiled templates reusable across the process lifetime.
//
// Thread Safety:
//   - Compile and the returned Templates are safe for concurrent use.
type Evaluator struct {
	env    *cel.Env
	states StateAccessor
	clock  func() time.Time
}

// NewEvaluator creates an Evaluator bound to the given state accessor.
//
// The environment exposes:
//   - trigger: the triggering event (see Context)
//   - states(entity_id): current state value of an entity (errors if unknown)
//   - is_state(entity_id, value): state equality check (false if unknown)
//   - now(layout): current time formatted with a Go reference layout
//   - the standard string extensions (replace, lowerAscii, split, ...),
//     mainly for slugging spoken names into entity ids
//
// Parameters:
//   - states: Entity state cache (must not be nil)
//
// Returns:
//   - *Evaluator: Ready-to-use evaluator
//   - error: If the expression environment cannot be constructed
func NewEvaluator(states StateAccessor) (*Evaluator, error) {
	e := &Evaluator{
		states: states,
		clock:  time.Now,
	}

	env, err := cel.NewEnv(
		ext.Strings(),
		cel.Variable("trigger", cel.DynType),
		cel.Function("states",
			cel.Overload("states_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(e.celStates))),
		cel.Function("is_state",
			cel.Overload("is_state_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(e.celIsState))),
		cel.Function("now",
			cel.Overload("now_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(e.celNow))),
	)
	if err != nil {
		return nil, fmt.Errorf("creating expression environment: %w", err)
	}

	e.env = env
	return e, nil
}

// SetClock overrides the time source used by the now() function.
// Intended for tests; production code uses the wall clock.
func (e *Evaluator) SetClock(clock func() time.Time) {
	e.clock = clock
}

// celStates implements the states(entity_id) function.
//
// An unknown entity is an evaluation error, surfacing as a failed render
// rather than silently dispatching with an empty value.
func (e *Evaluator) celStates(val ref.Val) ref.Val {
	entityID, ok := val.Value().(string)
	if !ok {
		return types.NewErr("states: entity id must be a string")
	}

	state, err := e.states.Get(entityID)
	if err != nil {
		return types.NewErr("states(%q): %v", entityID, err)
	}
	return types.String(state)
}

// celIsState implements the is_state(entity_id, value) function.
//
// Unknown entities compare as false so conditions can probe entities that
// have not reported yet without aborting the rule.
func (e *Evaluator) celIsState(entity, value ref.Val) ref.Val {
	entityID, ok := entity.Value().(string)
	if !ok {
		return types.NewErr("is_state: entity id must be a string")
	}
	want, ok := value.Value().(string)
	if !ok {
		return types.NewErr("is_state: value must be a string")
	}

	return types.Bool(e.states.IsState(entityID, want))
}

// celNow implements the now(layout) function.
// The layout uses Go's reference time format (e.g. "15:04").
func (e *Evaluator) celNow(val ref.Val) ref.Val {
	layout, ok := val.Value().(string)
	if !ok {
		return types.NewErr("now: layout must be a string")
	}
	return types.String(e.clock().Format(layout))
}

// compileExpr compiles a single expression span to an executable program.
func (e *Evaluator) compileExpr(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, expr, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, expr, err)
	}
	return prg, nil
}
