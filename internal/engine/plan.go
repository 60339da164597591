package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/planfmt"
)

// DefaultMaxRows is the default row quota per scoring pass.
const DefaultMaxRows = 1_000_000

type options struct {
	indexing   bool
	assertions bool
	maxRows    int
	logger     *slog.Logger
	ids        SessionIDGenerator
}

// Option configures a Plan and the sessions it creates.
type Option func(*options)

// WithIndexing enables or disables join indexes. Without indexes every
// join is evaluated as a nested scan; results are identical.
//
// Default: true
func WithIndexing(enabled bool) Option {
	return func(o *options) {
		o.indexing = enabled
	}
}

// WithAssertions makes every pass recompute each group from scratch and
// compare it with the incrementally maintained result. A mismatch fails
// the pass with ErrCodeAccumulatorDrift.
//
// Default: false
func WithAssertions(enabled bool) Option {
	return func(o *options) {
		o.assertions = enabled
	}
}

// WithMaxRows sets the row quota per pass. Zero disables the quota.
//
// Default: 1,000,000 rows (DefaultMaxRows)
func WithMaxRows(maxRows int) Option {
	return func(o *options) {
		o.maxRows = maxRows
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSessionIDGenerator sets how session ids are generated.
//
// Default: UUIDv7Generator
func WithSessionIDGenerator(gen SessionIDGenerator) Option {
	return func(o *options) {
		o.ids = gen
	}
}

// Plan is the compiled, immutable form of a set of rules. It may be shared
// by any number of sessions running concurrently.
type Plan struct {
	rules []*compiledRule
	byID  map[string]*compiledRule
	hash  string
	opts  options
}

// compiledRule assigns every variable of a rule a slot in the row layout.
// All scopes of a rule share one layout, so a row can be extended into an
// existence test or a group-by body without remapping.
type compiledRule struct {
	rule    *plan.Rule
	index   int
	slots   map[*plan.Variable]int
	width   int
	outputs []int
	groups  map[*plan.GroupBy]int
	byFrag  []*plan.GroupBy
}

// Compile validates rules and prepares them for evaluation.
//
// Rules are evaluated in the order given. A rule that fails validation, a
// duplicate constraint id, or a group-by that is not the first fragment of
// its scope is a configuration error.
func Compile(rules []*plan.Rule, opts ...Option) (*Plan, error) {
	o := options{
		indexing: true,
		maxRows:  DefaultMaxRows,
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	p := &Plan{byID: make(map[string]*compiledRule, len(rules)), opts: o}
	for i, rule := range rules {
		if rule == nil {
			return nil, plan.NewConfigError(plan.CodeInvalidPlan, "rule #%d is nil", i)
		}
		id := rule.ID()
		if res := plan.Validate(rule); !res.Valid {
			return nil, plan.NewConfigError(plan.CodeInvalidPlan, "%s", strings.Join(res.Problems, "; ")).WithConstraint(id)
		}
		if err := checkGroupPlacement(rule.Fragments, true); err != nil {
			return nil, err.WithConstraint(id)
		}
		if _, dup := p.byID[id]; dup {
			return nil, plan.NewConfigError(plan.CodeDuplicateConstraint, "duplicate constraint id").WithConstraint(id)
		}
		cr := compileRule(rule, i)
		p.rules = append(p.rules, cr)
		p.byID[id] = cr
	}

	hash, err := planfmt.PlanHash(rules)
	if err != nil {
		return nil, err
	}
	p.hash = hash

	o.logger.Debug("plan compiled",
		"plan", hash,
		"rules", len(rules),
		"indexing", o.indexing,
		"assertions", o.assertions,
	)
	return p, nil
}

// checkGroupPlacement rejects a group-by anywhere but first in the top level
// or first in another group-by's body.
func checkGroupPlacement(fragments []plan.Fragment, groupAllowed bool) *plan.ConfigError {
	for i, f := range fragments {
		switch frag := f.(type) {
		case *plan.GroupBy:
			if !groupAllowed || i != 0 {
				return plan.NewConfigError(plan.CodeInvalidPlan, "group-by must be the first fragment of a top level or group-by scope")
			}
			if err := checkGroupPlacement(frag.Body, true); err != nil {
				return err
			}
		case *plan.Exists:
			if err := checkGroupPlacement(frag.Body, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func compileRule(rule *plan.Rule, index int) *compiledRule {
	cr := &compiledRule{
		rule:   rule,
		index:  index,
		slots:  make(map[*plan.Variable]int),
		groups: make(map[*plan.GroupBy]int),
	}
	for _, v := range rule.Variables() {
		cr.slots[v] = cr.width
		cr.width++
	}
	for _, out := range rule.Outputs {
		cr.outputs = append(cr.outputs, cr.slots[out])
	}
	plan.Walk(rule.Fragments, func(f plan.Fragment) {
		if g, ok := f.(*plan.GroupBy); ok {
			cr.groups[g] = len(cr.byFrag)
			cr.byFrag = append(cr.byFrag, g)
		}
	})
	return cr
}

func (cr *compiledRule) id() string {
	return cr.rule.ID()
}

func (cr *compiledRule) slotsOf(vars []*plan.Variable) []int {
	out := make([]int, len(vars))
	for i, v := range vars {
		out[i] = cr.slots[v]
	}
	return out
}

// Hash returns the plan fingerprint. Plans built from the same constraint
// definitions have the same hash.
func (p *Plan) Hash() string {
	return p.hash
}

// Rules returns the rules in evaluation order.
func (p *Plan) Rules() []*plan.Rule {
	out := make([]*plan.Rule, len(p.rules))
	for i, cr := range p.rules {
		out[i] = cr.rule
	}
	return out
}

// NewSession creates an empty session over the plan.
func (p *Plan) NewSession() *Session {
	return newSession(p)
}
