package stream

import (
	"reflect"
	"slices"

	"github.com/roach88/scorestream/internal/plan"
)

// maxArity is the largest number of free variables a stream can carry.
const maxArity = 4

// lhs is the untyped left hand side of a constraint: the fragments built so
// far and the pattern variables that are the stream's free variables.
//
// head holds fragments that precede every variable, such as the group-by
// that produced them. An lhs is immutable; every operation returns a new
// one. A configuration error is recorded in err and carried unchanged
// through every later operation, so it surfaces when the constraint is
// finished.
type lhs struct {
	factory *Factory
	head    []plan.Fragment
	vars    []patternVariable
	err     error
}

func (l *lhs) withErr(err error) *lhs {
	return &lhs{factory: l.factory, err: err}
}

func (l *lhs) arity() int {
	return len(l.vars)
}

func (l *lhs) variables() []*plan.Variable {
	out := make([]*plan.Variable, len(l.vars))
	for i, v := range l.vars {
		out[i] = v.primary()
	}
	return out
}

func (l *lhs) build() []plan.Fragment {
	out := slices.Clone(l.head)
	for _, v := range l.vars {
		out = append(out, v.build()...)
	}
	return out
}

func (l *lhs) replaceLast(v patternVariable) *lhs {
	vars := slices.Clone(l.vars)
	vars[len(vars)-1] = v
	return &lhs{factory: l.factory, head: l.head, vars: vars}
}

func (l *lhs) last() patternVariable {
	return l.vars[len(l.vars)-1]
}

// filter keeps matches for which pred holds over every free variable.
func (l *lhs) filter(pred func(args []any) bool) *lhs {
	if l.err != nil {
		return l
	}
	if pred == nil {
		return l.withErr(plan.NewConfigError(plan.CodeNilFunction, "filter predicate is nil"))
	}
	v, err := l.last().filter(&plan.Filter{Inputs: l.variables(), Predicate: pred})
	if err != nil {
		return l.withErr(err)
	}
	return l.replaceLast(v)
}

// join appends a new fact variable restricted by joins and, optionally, a
// filter over every variable including the new one.
func (l *lhs) join(right *plan.Variable, source plan.FactSource, joins []*plan.Join, filter *plan.Filter) *lhs {
	if l.err != nil {
		return l
	}
	if l.arity() >= maxArity {
		return l.withErr(plan.NewConfigError(plan.CodeInvalidArity, "cannot join a stream of arity %d", l.arity()))
	}
	v, err := newDirectVariable(&plan.Pattern{Var: right, Source: source}).filterForJoin(joins)
	if err != nil {
		return l.withErr(err)
	}
	if filter != nil {
		if v, err = v.filter(filter); err != nil {
			return l.withErr(err)
		}
	}
	vars := appendFragment(l.vars, v)
	return &lhs{factory: l.factory, head: l.head, vars: vars}
}

// exists keeps matches for which a fact of the source type satisfying joins
// and filter exists (or, negated, does not exist). The existence test is a
// dependent of the last variable, so it sees every free variable.
func (l *lhs) exists(negated bool, ev *plan.Variable, source plan.FactSource, joins []*plan.Join, filter *plan.Filter) *lhs {
	if l.err != nil {
		return l
	}
	sub, err := newDirectVariable(&plan.Pattern{Var: ev, Source: source}).filterForJoin(joins)
	if err != nil {
		return l.withErr(err)
	}
	if filter != nil {
		if sub, err = sub.filter(filter); err != nil {
			return l.withErr(err)
		}
	}
	v, err := l.last().addDependent(&plan.Exists{Negated: negated, Body: sub.build()})
	if err != nil {
		return l.withErr(err)
	}
	return l.replaceLast(v)
}

// keySpec describes one group-by key.
type keySpec struct {
	name string
	typ  reflect.Type
	fn   func(args []any) any
}

// accSpec describes one group-by collector. def receives the variables the
// collector reads.
type accSpec struct {
	name  string
	typ   reflect.Type
	valid bool
	def   func(inputs []*plan.Variable) plan.Accumulator
}

// tupleSpec composes two to four keys into one tuple and extracts them back.
type tupleSpec struct {
	typ     reflect.Type
	compose func(keys []any) any
	extract []func(tuple any) any
}

// groupBy collapses the stream into one match per key.
//
// A single key is grouped on directly. Two to four keys are composed into a
// tuple, grouped on the tuple, and decomposed again into one derived
// variable per key, so downstream operations see individually typed
// variables. Collector outputs follow the keys; all but the last are
// detached, and the last is re-anchored so later filters can attach to it.
func (l *lhs) groupBy(keys []keySpec, tuple *tupleSpec, accs []accSpec) *lhs {
	if l.err != nil {
		return l
	}
	if len(keys)+len(accs) == 0 {
		return l.withErr(plan.NewConfigError(plan.CodeNoAccumulators, "group-by requires a key or a collector"))
	}
	if len(keys)+len(accs) > maxArity {
		return l.withErr(plan.NewConfigError(plan.CodeInvalidArity,
			"group-by with %d keys and %d collectors exceeds arity %d", len(keys), len(accs), maxArity))
	}
	for _, k := range keys {
		if k.fn == nil {
			return l.withErr(plan.NewConfigError(plan.CodeNilFunction, "group key function for %s is nil", k.name))
		}
	}
	for _, a := range accs {
		if !a.valid {
			return l.withErr(plan.NewConfigError(plan.CodeNoAccumulators, "collector for %s has no accumulate function", a.name))
		}
	}
	if len(keys) > 1 && (tuple == nil || len(tuple.extract) != len(keys)) {
		return l.withErr(plan.NewConfigError(plan.CodeInvalidArity, "group-by with %d keys needs a matching tuple", len(keys)))
	}

	f := l.factory
	inputs := l.variables()
	group := &plan.GroupBy{Body: l.build(), Inputs: inputs}

	var vars []patternVariable
	switch len(keys) {
	case 0:
	case 1:
		group.Key = f.newVariable(keys[0].name, keys[0].typ)
		group.KeyFn = keys[0].fn
		vars = append(vars, newDirectVariable(&plan.Pattern{Var: group.Key, Source: plan.BoundSource{}}))
	default:
		fns := make([]func([]any) any, len(keys))
		for i, k := range keys {
			fns[i] = k.fn
		}
		group.Key = f.newVariable("groupKey", tuple.typ)
		group.KeyFn = func(args []any) any {
			ks := make([]any, len(fns))
			for i, fn := range fns {
				ks[i] = fn(args)
			}
			return tuple.compose(ks)
		}
		for i, k := range keys {
			vars = append(vars, newIndirectVariable(f.newVariable(k.name, k.typ), group.Key, tuple.extract[i]))
		}
	}

	for i, a := range accs {
		out := f.newVariable(a.name, a.typ)
		group.Accumulates = append(group.Accumulates, plan.Accumulate{Def: a.def(inputs), Output: out})
		if i < len(accs)-1 {
			vars = append(vars, detachedVariable{v: out})
		} else {
			vars = append(vars, newDirectVariable(&plan.Pattern{Var: out, Source: plan.BoundSource{}}))
		}
	}

	return &lhs{factory: f, head: []plan.Fragment{group}, vars: vars}
}

// bindSpec describes one mapped output.
type bindSpec struct {
	name string
	typ  reflect.Type
	fn   func(args []any) any
}

// mapTo replaces the free variables with values derived from all of them.
// Unlike groupBy, mapping keeps one match per input match.
func (l *lhs) mapTo(specs []bindSpec) *lhs {
	if l.err != nil {
		return l
	}
	if len(specs) == 0 || len(specs) > maxArity {
		return l.withErr(plan.NewConfigError(plan.CodeInvalidArity, "map to %d values", len(specs)))
	}
	inputs := l.variables()
	vars := make([]patternVariable, len(specs))
	for i, s := range specs {
		if s.fn == nil {
			return l.withErr(plan.NewConfigError(plan.CodeNilFunction, "mapping function %d is nil", i))
		}
		vars[i] = newDerivedVariable(&plan.Bind{
			Var:    l.factory.newVariable(s.name, s.typ),
			Inputs: inputs,
			Fn:     s.fn,
		})
	}
	return &lhs{factory: l.factory, head: l.build(), vars: vars}
}

// distinct keeps one match per distinct combination of free variable
// values. compose packs the free variables into one comparable key and
// values splits it again.
func (l *lhs) distinct(rowType reflect.Type, compose func(args []any) any, values func(key any) []any) *lhs {
	if l.err != nil {
		return l
	}
	vars := l.variables()
	if len(vars) == 1 {
		return l.groupBy([]keySpec{{name: vars[0].Name, typ: vars[0].Type, fn: compose}}, nil, nil)
	}
	keys := make([]keySpec, len(vars))
	extract := make([]func(any) any, len(vars))
	for i, v := range vars {
		keys[i] = keySpec{name: v.Name, typ: v.Type}
		extract[i] = func(key any) any { return values(key)[i] }
	}
	keyed := l.groupBy([]keySpec{{name: "distinct", typ: rowType, fn: compose}}, nil, nil)
	if keyed.err != nil {
		return keyed
	}
	key := keyed.vars[0]
	out := make([]patternVariable, len(vars))
	for i, k := range keys {
		var err error
		if i == 0 {
			out[i], err = key.bind(l.factory.newVariable(k.name, k.typ), extract[i])
			if err != nil {
				return l.withErr(err)
			}
			continue
		}
		out[i] = newIndirectVariable(l.factory.newVariable(k.name, k.typ), key.primary(), extract[i])
	}
	return &lhs{factory: l.factory, head: keyed.head, vars: out}
}

// flattenLast replaces the last variable with one match per element of the
// iterable fn derives from it.
func (l *lhs) flattenLast(name string, typ reflect.Type, fn func(any) []any) *lhs {
	if l.err != nil {
		return l
	}
	if fn == nil {
		return l.withErr(plan.NewConfigError(plan.CodeNilFunction, "flatten function is nil"))
	}
	last := l.last()
	v := newDirectVariable(&plan.Pattern{
		Var:    l.factory.newVariable(name, typ),
		Source: plan.FlattenSource{From: last.primary(), Fn: fn},
	}, last.build()...)
	return l.replaceLast(v)
}
