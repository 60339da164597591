package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/scorestream/internal/engine"
)

// ScoreSource is the part of a session the final assertions read.
type ScoreSource interface {
	Score() engine.Score
	Matches(constraintID string) ([]engine.ConstraintMatch, bool)
	Indictments() []engine.Indictment
}

// AssertionError is returned when an assertion fails.
// It includes the score trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []ScoreEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nScore trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s => %d\n", event.Seq, event.Action, event.Fact, event.Total)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final state of the
// session and returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, src ScoreSource) []string {
	var errs []string
	for i := range assertions {
		if err := evaluateAssertion(result.Trace, &assertions[i], src); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

func evaluateAssertion(trace []ScoreEvent, a *Assertion, src ScoreSource) error {
	switch a.Type {
	case AssertTotal:
		return assertTotal(trace, a, src)
	case AssertConstraint:
		return assertConstraint(trace, a, src)
	case AssertMatchCount:
		return assertMatchCount(trace, a, src)
	case AssertIndictment:
		return assertIndictment(trace, a, src)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertTotal(trace []ScoreEvent, a *Assertion, src ScoreSource) error {
	if got := src.Score().Total; got != a.Score {
		return &AssertionError{
			Type:     AssertTotal,
			Expected: fmt.Sprintf("total %d", a.Score),
			Actual:   fmt.Sprintf("total %d", got),
			Trace:    trace,
		}
	}
	return nil
}

func assertConstraint(trace []ScoreEvent, a *Assertion, src ScoreSource) error {
	got, ok := src.Score().Constraints[a.Constraint]
	if !ok {
		return unknownConstraint(trace, a)
	}
	if got != a.Score {
		return &AssertionError{
			Type:     AssertConstraint,
			Expected: fmt.Sprintf("%s totals %d", a.Constraint, a.Score),
			Actual:   fmt.Sprintf("%s totals %d", a.Constraint, got),
			Trace:    trace,
		}
	}
	return nil
}

func assertMatchCount(trace []ScoreEvent, a *Assertion, src ScoreSource) error {
	matches, ok := src.Matches(a.Constraint)
	if !ok {
		return unknownConstraint(trace, a)
	}
	if len(matches) != a.Count {
		return &AssertionError{
			Type:     AssertMatchCount,
			Expected: fmt.Sprintf("%d matches of %s", a.Count, a.Constraint),
			Actual:   fmt.Sprintf("%d matches", len(matches)),
			Trace:    trace,
		}
	}
	return nil
}

// assertIndictment finds the indicted object by its printed form.
func assertIndictment(trace []ScoreEvent, a *Assertion, src ScoreSource) error {
	for _, ind := range src.Indictments() {
		if fmt.Sprint(ind.Object) != a.Object {
			continue
		}
		if ind.Impact != a.Score || (a.Count != 0 && ind.Count != a.Count) {
			return &AssertionError{
				Type:     AssertIndictment,
				Expected: fmt.Sprintf("%s indicted for %d%s", a.Object, a.Score, countSuffix(a.Count)),
				Actual:   fmt.Sprintf("%s indicted for %d%s", a.Object, ind.Impact, countSuffix(ind.Count)),
				Trace:    trace,
			}
		}
		return nil
	}
	if a.Score == 0 && a.Count == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertIndictment,
		Expected: fmt.Sprintf("%s indicted for %d%s", a.Object, a.Score, countSuffix(a.Count)),
		Actual:   "not indicted",
		Trace:    trace,
	}
}

func countSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" by %d matches", n)
}

func unknownConstraint(trace []ScoreEvent, a *Assertion) error {
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("constraint %s", a.Constraint),
		Actual:   "no such constraint in the plan",
		Trace:    trace,
	}
}
