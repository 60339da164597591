package stream

import (
	"slices"

	"github.com/roach88/scorestream/internal/plan"
)

// patternVariable is one free variable of a pipeline together with the
// fragments that produce it.
//
// Prerequisites are evaluated before the variable's defining fragment and
// dependents after it. Every method returns a new value; fragment slices
// are never appended to in place.
type patternVariable interface {
	primary() *plan.Variable

	// filter attaches a predicate over inputs, which must all be bound by
	// the time this variable is.
	filter(f *plan.Filter) (patternVariable, error)

	// filterForJoin attaches indexed joins directly after the defining
	// pattern.
	filterForJoin(joins []*plan.Join) (patternVariable, error)

	// bind derives a new variable from this one. The result carries this
	// variable's fragments as its prerequisites.
	bind(out *plan.Variable, fn func(any) any) (patternVariable, error)

	// addDependent attaches a fragment evaluated after this variable, such
	// as an existence test.
	addDependent(f plan.Fragment) (patternVariable, error)

	// build returns the fragments that produce this variable, in order.
	build() []plan.Fragment
}

func appendFragment[F any](s []F, f ...F) []F {
	return append(slices.Clip(s), f...)
}

// directVariable is read straight off its defining Pattern.
type directVariable struct {
	v             *plan.Variable
	prerequisites []plan.Fragment
	pattern       *plan.Pattern
	joins         []plan.Fragment
	dependents    []plan.Fragment
}

func newDirectVariable(pattern *plan.Pattern, prerequisites ...plan.Fragment) *directVariable {
	return &directVariable{v: pattern.Var, pattern: pattern, prerequisites: prerequisites}
}

func (d *directVariable) primary() *plan.Variable { return d.v }

func (d *directVariable) filter(f *plan.Filter) (patternVariable, error) {
	return d.addDependent(f)
}

func (d *directVariable) filterForJoin(joins []*plan.Join) (patternVariable, error) {
	if _, ok := d.pattern.Source.(plan.FactSource); !ok {
		return nil, plan.NewConfigError(plan.CodeInvalidPlan, "cannot index variable %s that is not matched from facts", d.v)
	}
	c := *d
	for _, j := range joins {
		c.joins = appendFragment(c.joins, plan.Fragment(j))
	}
	return &c, nil
}

func (d *directVariable) bind(out *plan.Variable, fn func(any) any) (patternVariable, error) {
	return newIndirectVariable(out, d.v, fn, d.build()...), nil
}

func (d *directVariable) addDependent(f plan.Fragment) (patternVariable, error) {
	c := *d
	c.dependents = appendFragment(c.dependents, f)
	return &c, nil
}

func (d *directVariable) build() []plan.Fragment {
	out := make([]plan.Fragment, 0, len(d.prerequisites)+1+len(d.joins)+len(d.dependents))
	out = append(out, d.prerequisites...)
	out = append(out, d.pattern)
	out = append(out, d.joins...)
	return append(out, d.dependents...)
}

// indirectVariable is derived from another variable by a pure function,
// so downstream functions see the derived value without the arity of the
// stream growing.
type indirectVariable struct {
	v             *plan.Variable
	prerequisites []plan.Fragment
	definition    *plan.Bind
	dependents    []plan.Fragment
}

func newIndirectVariable(out, from *plan.Variable, fn func(any) any, prerequisites ...plan.Fragment) *indirectVariable {
	return &indirectVariable{
		v:             out,
		prerequisites: prerequisites,
		definition: &plan.Bind{
			Var:    out,
			Inputs: []*plan.Variable{from},
			Fn:     func(args []any) any { return fn(args[0]) },
		},
	}
}

func newDerivedVariable(bind *plan.Bind, prerequisites ...plan.Fragment) *indirectVariable {
	return &indirectVariable{v: bind.Var, definition: bind, prerequisites: prerequisites}
}

func (i *indirectVariable) primary() *plan.Variable { return i.v }

func (i *indirectVariable) filter(f *plan.Filter) (patternVariable, error) {
	return i.addDependent(f)
}

func (i *indirectVariable) filterForJoin([]*plan.Join) (patternVariable, error) {
	return nil, plan.NewConfigError(plan.CodeInvalidPlan, "cannot index derived variable %s", i.v)
}

func (i *indirectVariable) bind(out *plan.Variable, fn func(any) any) (patternVariable, error) {
	return newIndirectVariable(out, i.v, fn, i.build()...), nil
}

func (i *indirectVariable) addDependent(f plan.Fragment) (patternVariable, error) {
	c := *i
	c.dependents = appendFragment(c.dependents, f)
	return &c, nil
}

func (i *indirectVariable) build() []plan.Fragment {
	out := make([]plan.Fragment, 0, len(i.prerequisites)+1+len(i.dependents))
	out = append(out, i.prerequisites...)
	out = append(out, i.definition)
	return append(out, i.dependents...)
}

// detachedVariable has no defining fragment of its own. It is bound as a
// side output of a fragment owned by another variable and can only be read.
type detachedVariable struct {
	v *plan.Variable
}

func (d detachedVariable) primary() *plan.Variable { return d.v }

func (d detachedVariable) fail(op string) error {
	return plan.NewConfigError(plan.CodeDetachedVariable, "cannot %s detached variable %s", op, d.v)
}

func (d detachedVariable) filter(*plan.Filter) (patternVariable, error) {
	return nil, d.fail("filter")
}

func (d detachedVariable) filterForJoin([]*plan.Join) (patternVariable, error) {
	return nil, d.fail("join on")
}

func (d detachedVariable) bind(*plan.Variable, func(any) any) (patternVariable, error) {
	return nil, d.fail("bind from")
}

func (d detachedVariable) addDependent(plan.Fragment) (patternVariable, error) {
	return nil, d.fail("add a dependent to")
}

func (d detachedVariable) build() []plan.Fragment { return nil }
