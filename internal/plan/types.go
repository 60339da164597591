package plan

import "reflect"

// Fragment is one step of a compiled constraint plan.
//
// This is a sealed interface: only types in this package implement it.
//
// Fragment types:
//   - Pattern: binds a variable
//   - Join: indexed comparison against the most recent Pattern
//   - Filter: predicate over bound variables
//   - Exists: existence or negated existence of a sub-plan
//   - GroupBy: single-key grouping with accumulators
//   - Bind: variable derived from other variables
type Fragment interface {
	fragmentNode() // Marker method - seals interface to this package
}

// Source says where a Pattern takes its values from.
//
// This is a sealed interface. Source types:
//   - FactSource: every live fact of a Go type
//   - BoundSource: a variable bound by an earlier fragment
//   - FlattenSource: each element of an iterable derived from a variable
type Source interface {
	sourceNode() // Marker method - seals interface to this package
}

// Pattern binds Var from Source.
//
// Semantics: each incoming match is extended once per value the source
// yields. A BoundSource yields exactly the value already bound to Var, so it
// acts as an anchor for filters attached to a variable produced elsewhere
// (for example the result of a GroupBy).
type Pattern struct {
	Var    *Variable
	Source Source
}

func (Pattern) fragmentNode() {}

// FactSource yields every live fact whose dynamic type is Type (or
// implements it, for interface types).
//
// Filter is the nullity filter: facts it rejects are invisible to the
// pattern. A nil Filter admits every fact.
type FactSource struct {
	Type   reflect.Type
	Filter func(fact any) bool
}

func (FactSource) sourceNode() {}

// BoundSource re-anchors a variable bound by an earlier fragment.
type BoundSource struct{}

func (BoundSource) sourceNode() {}

// FlattenSource yields each element returned by Fn for the value of From.
// Duplicate elements yield distinct matches.
type FlattenSource struct {
	From *Variable
	Fn   func(value any) []any
}

func (FlattenSource) sourceNode() {}

// Filter keeps a match only if Predicate returns true for the values of
// Inputs, in order.
type Filter struct {
	Inputs    []*Variable
	Predicate func(args []any) bool
}

func (Filter) fragmentNode() {}

// Join restricts the variable Right, bound by the immediately preceding
// Pattern, through a comparison with the variables in Left.
//
// Semantics: with l = LeftKey(values of Left) and r = RightKey(value of
// Right), the match holds iff Type holds for (l, r), or for (r, l) when
// Swapped is true. Type is always native (Equal, LessThan or
// LessThanOrEqual); Swapped carries the flip of descending comparisons.
//
// Compare orders keys for the ordering types. It is nil for Equal joins,
// which compare keys with ==.
type Join struct {
	Right    *Variable
	Left     []*Variable
	LeftKey  func(args []any) any
	RightKey func(right any) any
	Type     JoinerType
	Swapped  bool
	Range    bool
	Compare  func(a, b any) int
}

func (Join) fragmentNode() {}

// Holds evaluates the join for a pair of already extracted keys.
func (j *Join) Holds(left, right any) bool {
	if j.Type == Equal && j.Compare == nil {
		return left == right
	}
	if j.Swapped {
		return j.Type.Matches(j.Compare(right, left))
	}
	return j.Type.Matches(j.Compare(left, right))
}

// Declared returns the comparison the user wrote, before the flip.
func (j *Join) Declared() JoinerType {
	t := j.Type
	if j.Swapped {
		t = t.Flip()
	}
	if j.Range {
		switch t {
		case LessThan:
			return RangeLessThan
		case GreaterThan:
			return RangeGreaterThan
		}
	}
	return t
}

// Exists keeps a match iff Body, evaluated from that match, yields at least
// one result. Negated inverts the test.
type Exists struct {
	Negated bool
	Body    []Fragment
}

func (Exists) fragmentNode() {}

// GroupBy evaluates Body from an empty match and collapses the results into
// one match per distinct key.
//
// Semantics: every body result contributes to the group KeyFn(Inputs)
// through every accumulator. After the GroupBy only Key and the accumulator
// outputs are bound; everything bound in Body goes out of scope. A nil Key
// means a single group. A group exists only while at least one body result
// contributes to it.
type GroupBy struct {
	Body        []Fragment
	Inputs      []*Variable
	Key         *Variable
	KeyFn       func(args []any) any
	Accumulates []Accumulate
}

func (GroupBy) fragmentNode() {}

// Accumulate binds the finished result of Def to Output.
type Accumulate struct {
	Def    Accumulator
	Output *Variable
}

// Bind derives Var from Inputs.
type Bind struct {
	Var    *Variable
	Inputs []*Variable
	Fn     func(args []any) any
}

func (Bind) fragmentNode() {}
