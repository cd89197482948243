package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/kitty/internal/engine"
	"github.com/roach88/kitty/internal/store"
	"github.com/roach88/kitty/internal/trust"
)

// AssertionContext provides what assertions need to inspect the outcome.
type AssertionContext struct {
	Ctx      context.Context
	Store    *store.Store
	Engine   *engine.Engine
	Tracker  *trust.Tracker
	CircleID string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", ev.Step, ev.Op, ev.Member, ev.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertFinalView:
		return assertFinalView(result, a, actx)
	case AssertEventCount:
		return assertEventCount(result, a, actx)
	case AssertEventOrder:
		return assertEventOrder(result, a, actx)
	case AssertReplay:
		if err := actx.Engine.Verify(actx.Ctx, actx.CircleID); err != nil {
			return &AssertionError{Type: a.Type, Expected: "replay matches stored snapshot", Actual: err.Error(), Trace: result.Trace}
		}
		return nil
	case AssertTrust:
		p, err := actx.Tracker.Profile(actx.Ctx, a.Member)
		if err != nil {
			return err
		}
		if diff := MatchSubset(a.Expect, p); diff != "" {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("profile of %s matches %v", a.Member, a.Expect), Actual: diff}
		}
		return nil
	case AssertActivityCount:
		recs, err := actx.Store.ReadActivity(actx.Ctx, a.Member)
		if err != nil {
			return err
		}
		if len(recs) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d activity records for %s", a.Count, a.Member),
				Actual:   fmt.Sprintf("%d records", len(recs)),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertFinalView(result *Result, a Assertion, actx *AssertionContext) error {
	v, err := actx.Engine.View(actx.Ctx, actx.CircleID, a.Member)
	if err != nil {
		return err
	}
	if diff := MatchSubset(a.Expect, v); diff != "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("view matches %v", a.Expect),
			Actual:   diff,
			Trace:    result.Trace,
		}
	}
	return nil
}

func eventKinds(actx *AssertionContext) ([]string, error) {
	events, err := actx.Store.ReadEvents(actx.Ctx, actx.CircleID)
	if err != nil {
		return nil, err
	}
	kinds := make([]string, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds, nil
}

// assertEventCount checks that the kind appears exactly Count times.
func assertEventCount(result *Result, a Assertion, actx *AssertionContext) error {
	kinds, err := eventKinds(actx)
	if err != nil {
		return err
	}
	count := 0
	for _, k := range kinds {
		if k == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertEventOrder checks that the kinds appear in the specified order.
// They don't need to be consecutive (intervening events are allowed).
func assertEventOrder(result *Result, a Assertion, actx *AssertionContext) error {
	kinds, err := eventKinds(actx)
	if err != nil {
		return err
	}
	next := 0
	for _, k := range kinds {
		if next < len(a.Kinds) && k == a.Kinds[next] {
			next++
		}
	}
	if next < len(a.Kinds) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("events in order: %v", a.Kinds),
			Actual:   fmt.Sprintf("%s not found after %v", a.Kinds[next], a.Kinds[:next]),
			Trace:    result.Trace,
		}
	}
	return nil
}

// MatchSubset compares expected against the JSON form of actual. Maps
// match when every expected key matches; lists must have equal length and
// match element-wise; numbers compare by their decimal form. Returns ""
// on match or a description of the first difference.
func MatchSubset(expected map[string]any, actual any) string {
	got, err := normalize(actual)
	if err != nil {
		return fmt.Sprintf("encode actual: %v", err)
	}
	want, err := normalize(expected)
	if err != nil {
		return fmt.Sprintf("encode expected: %v", err)
	}
	return matchValue("", want, got)
}

// normalize round-trips v through JSON so YAML ints and Go structs compare
// on equal terms.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func matchValue(path string, want, got any) string {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return fmt.Sprintf("%s: expected object, got %v", pathOrRoot(path), got)
		}
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			gv, exists := g[k]
			if !exists {
				return fmt.Sprintf("%s: field missing", join(path, k))
			}
			if diff := matchValue(join(path, k), w[k], gv); diff != "" {
				return diff
			}
		}
		return ""
	case []any:
		g, ok := got.([]any)
		if !ok {
			return fmt.Sprintf("%s: expected list, got %v", pathOrRoot(path), got)
		}
		if len(w) != len(g) {
			return fmt.Sprintf("%s: expected %d items, got %d", pathOrRoot(path), len(w), len(g))
		}
		for i := range w {
			if diff := matchValue(fmt.Sprintf("%s[%d]", path, i), w[i], g[i]); diff != "" {
				return diff
			}
		}
		return ""
	default:
		if fmt.Sprint(want) != fmt.Sprint(got) {
			return fmt.Sprintf("%s: expected %v, got %v", pathOrRoot(path), want, got)
		}
		return ""
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func pathOrRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
