package harness

import (
	"maps"

	"github.com/roach88/scorestream/internal/engine"
)

// ScoreEvent is the score of a session after one step.
type ScoreEvent struct {
	Seq    int64  `json:"seq"`
	Action string `json:"action"`
	Fact   string `json:"fact"`
	Total  int64  `json:"total"`

	// Constraints holds the constraints with a non-zero total.
	Constraints map[string]int64 `json:"constraints,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Plan is the fingerprint of the compiled plan.
	Plan string `json:"plan"`

	// Trace holds one event per step, in step order.
	Trace []ScoreEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Totals are the per constraint totals after the last step, in plan
	// order.
	Totals []engine.ConstraintMatchTotal `json:"totals"`
}

// NewResult creates a new passing result.
func NewResult(plan string) *Result {
	return &Result{
		Pass:   true,
		Plan:   plan,
		Trace:  []ScoreEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddScore appends the score after a step to the trace.
func (r *Result) AddScore(seq int64, action, fact string, score engine.Score) {
	constraints := maps.Clone(score.Constraints)
	maps.DeleteFunc(constraints, func(_ string, v int64) bool { return v == 0 })
	if len(constraints) == 0 {
		constraints = nil
	}
	r.Trace = append(r.Trace, ScoreEvent{
		Seq:         seq,
		Action:      action,
		Fact:        fact,
		Total:       score.Total,
		Constraints: constraints,
	})
}

// Final returns the last score of the trace.
func (r *Result) Final() (ScoreEvent, bool) {
	if len(r.Trace) == 0 {
		return ScoreEvent{}, false
	}
	return r.Trace[len(r.Trace)-1], true
}
