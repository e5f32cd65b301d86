package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// Span delimiters. Text outside spans passes through verbatim;
// text inside spans is a compiled expression.
const (
	spanOpen  = "{{"
	spanClose = "}}"
)

// segment is one piece of a parsed template: either a literal run of
// text or a compiled expression span.
type segment struct {
	literal string
	program cel.Program
	expr    string
}

// Template is a compiled template ready for repeated rendering.
//
// A template is immutable after Compile and safe for concurrent use.
// Rendering the same template against the same Context always produces
// the same result (the state cache and clock aside).
type Template struct {
	source   string
	segments []segment
}

// ContainsSpan reports whether a string holds at least one expression
// span and therefore needs compiling rather than literal treatment.
func ContainsSpan(s string) bool {
	return strings.Contains(s, spanOpen)
}

// Compile parses and compiles a template string.
//
// The source is scanned for {{ ... }} spans; each span's expression is
// compiled against the evaluator's environment. All compilation errors
// are reported at load time so a rule file with a broken template is
// rejected as a whole.
//
// Parameters:
//   - source: Template text, e.g. "light.{{ trigger.event.data[\"room\"] }}"
//
// Returns:
//   - *Template: Compiled template
//   - error: Wrapping ErrCompile if a span is malformed or fails to compile
func (e *Evaluator) Compile(source string) (*Template, error) {
	t := &Template{source: source}

	rest := source
	for {
		open := strings.Index(rest, spanOpen)
		if open < 0 {
			if rest != "" {
				t.segments = append(t.segments, segment{literal: rest})
			}
			break
		}

		if open > 0 {
			t.segments = append(t.segments, segment{literal: rest[:open]})
		}

		rest = rest[open+len(spanOpen):]
		closeIdx := strings.Index(rest, spanClose)
		if closeIdx < 0 {
			return nil, fmt.Errorf("%w: unclosed expression span in %q", ErrCompile, source)
		}

		expr := strings.TrimSpace(rest[:closeIdx])
		if expr == "" {
			return nil, fmt.Errorf("%w: empty expression span in %q", ErrCompile, source)
		}

		prg, err := e.compileExpr(expr)
		if err != nil {
			return nil, err
		}
		t.segments = append(t.segments, segment{program: prg, expr: expr})

		rest = rest[closeIdx+len(spanClose):]
	}

	return t, nil
}

// Source returns the original template text.
func (t *Template) Source() string {
	return t.source
}

// Render evaluates the template against a triggering event and returns
// the resulting string.
//
// Literal segments pass through verbatim; expression results are
// stringified. An expression referencing a payload field the event does
// not carry fails the render.
//
// Parameters:
//   - tc: The triggering event's data
//
// Returns:
//   - string: Rendered output
//   - error: Wrapping ErrEval if any span fails to evaluate
func (t *Template) Render(tc Context) (string, error) {
	activation := tc.activation()

	var b strings.Builder
	for _, seg := range t.segments {
		if seg.program == nil {
			b.WriteString(seg.literal)
			continue
		}

		out, _, err := seg.program.Eval(activation)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %w", ErrEval, seg.expr, err)
		}
		b.WriteString(formatValue(out))
	}

	return b.String(), nil
}

// RenderBool evaluates the template as a boolean, for condition gates.
//
// A template that is a single expression span must evaluate to a CEL
// boolean. Anything else is rendered to a string first and interpreted
// leniently: "true"/"yes"/"on"/"1" are true, "false"/"no"/"off"/"0" and
// the empty string are false. Other strings are ErrNotBool.
//
// Parameters:
//   - tc: The triggering event's data
//
// Returns:
//   - bool: The condition result
//   - error: Wrapping ErrEval or ErrNotBool
func (t *Template) RenderBool(tc Context) (bool, error) {
	// Whole-template single span: preserve the typed result.
	if len(t.segments) == 1 && t.segments[0].program != nil {
		seg := t.segments[0]
		out, _, err := seg.program.Eval(tc.activation())
		if err != nil {
			return false, fmt.Errorf("%w: %q: %w", ErrEval, seg.expr, err)
		}
		if v, ok := out.Value().(bool); ok {
			return v, nil
		}
		return false, fmt.Errorf("%w: %q evaluated to %T", ErrNotBool, seg.expr, out.Value())
	}

	rendered, err := t.Render(tc)
	if err != nil {
		return false, err
	}
	return parseBool(rendered)
}

// formatValue converts an expression result to its string form.
func formatValue(v ref.Val) string {
	switch n := v.Value().(type) {
	case string:
		return n
	case bool:
		return strconv.FormatBool(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", n)
	}
}

// parseBool interprets a rendered string as a boolean.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: rendered value %q", ErrNotBool, s)
	}
}
