package stream

import (
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/row"
)

// ConstraintBuilder finishes a stream into a named constraint. It is a
// value; every method returns a modified copy.
type ConstraintBuilder[In any] struct {
	stream      Stream[In]
	impact      plan.ImpactType
	weight      int64
	matchWeight func(In) int64
	justify     func(In, int64) any
	indict      func(In) []any
	err         error
}

func (s Stream[In]) impactBy(t plan.ImpactType, weight int64, matchWeight func(In) int64, byFunc bool) ConstraintBuilder[In] {
	b := ConstraintBuilder[In]{stream: s, impact: t, weight: weight, matchWeight: matchWeight}
	if byFunc && matchWeight == nil {
		b.err = plan.NewConfigError(plan.CodeNilFunction, "match weight function is nil")
	}
	return b
}

// Penalize subtracts weight from the score for every match.
func (s Stream[In]) Penalize(weight int64) ConstraintBuilder[In] {
	return s.impactBy(plan.Penalty, weight, nil, false)
}

// PenalizeBy subtracts weight times matchWeight(match) for every match.
// matchWeight must not be negative.
func (s Stream[In]) PenalizeBy(weight int64, matchWeight func(In) int64) ConstraintBuilder[In] {
	return s.impactBy(plan.Penalty, weight, matchWeight, true)
}

// Reward adds weight to the score for every match.
func (s Stream[In]) Reward(weight int64) ConstraintBuilder[In] {
	return s.impactBy(plan.Reward, weight, nil, false)
}

// RewardBy adds weight times matchWeight(match) for every match.
// matchWeight must not be negative.
func (s Stream[In]) RewardBy(weight int64, matchWeight func(In) int64) ConstraintBuilder[In] {
	return s.impactBy(plan.Reward, weight, matchWeight, true)
}

// Impact adds weight to the score for every match; a negative weight
// penalizes.
func (s Stream[In]) Impact(weight int64) ConstraintBuilder[In] {
	return s.impactBy(plan.Mixed, weight, nil, false)
}

// ImpactBy adds weight times matchWeight(match), keeping the sign of the
// match weight.
func (s Stream[In]) ImpactBy(weight int64, matchWeight func(In) int64) ConstraintBuilder[In] {
	return s.impactBy(plan.Mixed, weight, matchWeight, true)
}

// JustifyWith sets how a match is explained. fn receives the match and its
// signed score impact.
func (b ConstraintBuilder[In]) JustifyWith(fn func(In, int64) any) ConstraintBuilder[In] {
	if fn == nil && b.err == nil {
		b.err = plan.NewConfigError(plan.CodeNilFunction, "justification function is nil")
	}
	b.justify = fn
	return b
}

// IndictWith sets which objects a match blames.
func (b ConstraintBuilder[In]) IndictWith(fn func(In) []any) ConstraintBuilder[In] {
	if fn == nil && b.err == nil {
		b.err = plan.NewConfigError(plan.CodeNilFunction, "indictment function is nil")
	}
	b.indict = fn
	return b
}

// AsConstraint names the constraint in the factory's default package.
func (b ConstraintBuilder[In]) AsConstraint(name string) *Constraint {
	return b.AsConstraintIn(b.stream.lhs.factory.defaultPackage, name)
}

// AsConstraintIn names the constraint and builds its rule. A configuration
// error recorded anywhere along the stream is returned by Err instead.
func (b ConstraintBuilder[In]) AsConstraintIn(pkg, name string) *Constraint {
	ref := plan.ConstraintRef{
		Package: normalizeName(pkg),
		Name:    normalizeName(name),
		Weight:  b.weight,
		Impact:  b.impact,
	}
	c := &Constraint{ref: ref}
	if ref.Name == "" {
		c.err = plan.NewConfigError(plan.CodeInvalidName, "constraint name %q is empty", name)
		return c
	}
	if err := firstErr(b.stream.lhs.err, b.err); err != nil {
		c.err = withConstraint(err, ref.ID())
		return c
	}

	l := b.stream.lhs
	rule := &plan.Rule{
		Constraint:  ref,
		Fragments:   l.build(),
		Outputs:     l.variables(),
		Consequence: b.consequence(),
	}
	if res := plan.Validate(rule); !res.Valid {
		c.err = plan.NewConfigError(plan.CodeInvalidPlan, "%s", strings.Join(res.Problems, "; ")).WithConstraint(ref.ID())
		return c
	}
	c.rule = rule
	return c
}

func (b ConstraintBuilder[In]) consequence() plan.Consequence {
	pack := b.stream.pack
	var c plan.Consequence
	if fn := b.matchWeight; fn != nil {
		c.Weight = func(args []any) int64 { return fn(pack(args)) }
	}
	if fn := b.justify; fn != nil {
		c.Justify = func(args []any, impact int64) any { return fn(pack(args), impact) }
	}
	if fn := b.indict; fn != nil {
		c.Indict = func(args []any) []any { return fn(pack(args)) }
	}
	return c
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func withConstraint(err error, id string) error {
	if ce, ok := plan.AsConfigError(err); ok {
		return ce.WithConstraint(id)
	}
	return errors.Wrapf(err, "constraint %q", id)
}

// Constraint is a finished constraint: its rule, or the configuration error
// that prevented building it.
type Constraint struct {
	ref  plan.ConstraintRef
	rule *plan.Rule
	err  error
}

// ID returns the constraint id, "package/name".
func (c *Constraint) ID() string {
	return c.ref.ID()
}

// Rule returns the compiled rule, or nil when Err is not nil.
func (c *Constraint) Rule() *plan.Rule {
	return c.rule
}

// Err returns the configuration error, if any.
func (c *Constraint) Err() error {
	return c.err
}

// Provider defines the constraints of a model.
type Provider func(f *Factory) []*Constraint

// Build runs provider and returns the rules of every constraint. It fails on
// the first configuration error, or when two constraints share an id.
func (f *Factory) Build(provider Provider) ([]*plan.Rule, error) {
	if provider == nil {
		return nil, plan.NewConfigError(plan.CodeNilFunction, "constraint provider is nil")
	}
	constraints := provider(f)
	rules := make([]*plan.Rule, 0, len(constraints))
	seen := make(map[string]bool, len(constraints))
	for i, c := range constraints {
		if c == nil {
			return nil, plan.NewConfigError(plan.CodeNilFunction, "constraint #%d is nil", i)
		}
		if c.err != nil {
			return nil, c.err
		}
		id := c.ID()
		if seen[id] {
			return nil, plan.NewConfigError(plan.CodeDuplicateConstraint, "duplicate constraint id").WithConstraint(id)
		}
		seen[id] = true
		rules = append(rules, c.rule)
	}
	return rules, nil
}

// Values returns the values of a uni, bi, tri or quad match as a slice, for
// indictments that blame every matched object.
func Values[In any](in In) []any {
	return row.Values(in)
}
