package harness

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/roach88/scorestream/internal/config"
	"github.com/roach88/scorestream/internal/demo"
	"github.com/roach88/scorestream/internal/engine"
	"github.com/roach88/scorestream/internal/stream"
	"github.com/roach88/scorestream/internal/testutil"
)

// Harness executes one scenario against one engine session.
type Harness struct {
	session *engine.Session
	facts   factSet
	clock   *engine.Clock
	logger  *slog.Logger
}

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger sends engine and harness logs to logger. Runs are silent by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh session over a freshly compiled demo plan.
// Accumulator assertions are always on, so incremental drift fails the run.
//
// Execution flow:
// 1. Build the demo rules and apply the scenario config
// 2. Insert the setup facts
// 3. Execute the steps, scoring and checking expectations after each
// 4. Evaluate the final assertions
//
// The error is non-nil only if the scenario could not be executed; failed
// expectations are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a context checked before every score calculation.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	p, err := compileDemo(scenario, o.logger)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		session: p.NewSession(),
		facts:   make(factSet),
		clock:   engine.NewClock(),
		logger:  o.logger.With("scenario", scenario.Name),
	}
	defer h.session.Close()

	result := NewResult(p.Hash())
	if err := h.executeSetup(scenario.Setup); err != nil {
		return nil, errors.Wrap(err, "failed to execute setup")
	}
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, errors.Wrap(err, "failed to execute steps")
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.session) {
		result.AddError(msg)
	}
	result.Totals = h.session.ConstraintMatchTotals()
	return result, nil
}

// compileDemo builds the demo rules with the scenario's configuration.
func compileDemo(scenario *Scenario, logger *slog.Logger) (*engine.Plan, error) {
	cfg := config.Default()
	if scenario.Config != "" {
		var err error
		if cfg, err = config.LoadString(scenario.Config); err != nil {
			return nil, errors.Wrap(err, "invalid scenario config")
		}
	}

	rules, err := stream.NewFactory().Build(demo.Provider)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build demo constraints")
	}
	if rules, err = cfg.Apply(rules); err != nil {
		return nil, errors.Wrap(err, "invalid scenario config")
	}

	opts := append(cfg.EngineOptions(),
		engine.WithAssertions(true),
		engine.WithLogger(logger),
		engine.WithSessionIDGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
	)
	p, err := engine.Compile(rules, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile demo plan")
	}
	return p, nil
}

func (h *Harness) executeSetup(setup []FactSpec) error {
	for i := range setup {
		fact, err := h.facts.insert(&setup[i])
		if err != nil {
			return errors.Wrapf(err, "setup[%d]", i)
		}
		if err := h.session.Insert(fact); err != nil {
			return errors.Wrapf(err, "setup[%d]", i)
		}
	}
	return nil
}

// executeSteps applies each step, calculates the score and checks the
// step's expectation.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i := range steps {
		step := &steps[i]
		action, spec := step.change()

		fact, err := h.apply(action, spec)
		if err != nil {
			return errors.Wrapf(err, "steps[%d]", i)
		}

		score, err := h.session.CalculateScore(ctx)
		if err != nil {
			return errors.Wrapf(err, "steps[%d]", i)
		}
		seq := h.clock.Next()
		label := fmt.Sprint(fact)
		result.AddScore(seq, action, label, score)

		h.logger.Debug("step scored",
			"step", seq,
			"action", action,
			"fact", label,
			"total", score.Total,
		)

		if step.Expect != nil {
			for _, msg := range h.checkExpectation(step.Expect, score) {
				result.AddError(fmt.Sprintf("steps[%d]: %s", i, msg))
			}
		}
	}
	return nil
}

func (h *Harness) apply(action string, spec *FactSpec) (any, error) {
	switch action {
	case ActionInsert:
		fact, err := h.facts.insert(spec)
		if err != nil {
			return nil, err
		}
		return fact, h.session.Insert(fact)
	case ActionUpdate:
		fact, err := h.facts.update(spec)
		if err != nil {
			return nil, err
		}
		return fact, h.session.Update(fact)
	default:
		fact, err := h.facts.retract(spec)
		if err != nil {
			return nil, err
		}
		return fact, h.session.Retract(fact)
	}
}

// checkExpectation compares a score with the subset of values the step
// expects. Constraints are checked in id order.
func (h *Harness) checkExpectation(exp *Expectation, score engine.Score) []string {
	var errs []string
	if exp.Total != nil && *exp.Total != score.Total {
		errs = append(errs, fmt.Sprintf("expected total %d, got %d", *exp.Total, score.Total))
	}

	for _, id := range slices.Sorted(maps.Keys(exp.Constraints)) {
		got, ok := score.Constraints[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown constraint %q", id))
			continue
		}
		if want := exp.Constraints[id]; want != got {
			errs = append(errs, fmt.Sprintf("expected %q to total %d, got %d", id, want, got))
		}
	}

	for _, id := range slices.Sorted(maps.Keys(exp.Matches)) {
		matches, ok := h.session.Matches(id)
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown constraint %q", id))
			continue
		}
		if want := exp.Matches[id]; want != len(matches) {
			errs = append(errs, fmt.Sprintf("expected %d matches of %q, got %d", want, id, len(matches)))
		}
	}
	return errs
}
