// Package joiner provides the declarative comparisons used to join a stream
// with another fact type or to test for the existence of one.
//
// A Joiner[L, R] compares a left row of type L (the stream's argument row)
// with a right fact of type R. It is an ordered list of elementary joins,
// each either indexing (a key extracted on both sides and compared) or
// filtering (an arbitrary predicate). Once a filtering join appears, no
// indexing join may follow it: runtimes index on the leading indexing joins
// and evaluate the filtering tail per candidate pair.
package joiner

import (
	"cmp"

	"github.com/roach88/scorestream/internal/plan"
)

// Index is one indexing comparison: Type holds for (Left(l), Right(r)).
// A nil Compare is only valid for Equal and compares keys with ==.
type Index[L, R any] struct {
	Type    plan.JoinerType
	Left    func(L) any
	Right   func(R) any
	Compare func(a, b any) int
}

// Holds evaluates the comparison for one pair.
func (ix Index[L, R]) Holds(l L, r R) bool {
	lk, rk := ix.Left(l), ix.Right(r)
	if ix.Compare == nil {
		return lk == rk
	}
	return ix.Type.Matches(ix.Compare(lk, rk))
}

type part[L, R any] struct {
	index  *Index[L, R]
	filter func(L, R) bool
}

// Joiner is an ordered sequence of elementary joins. The zero Joiner matches
// every pair.
type Joiner[L, R any] struct {
	parts []part[L, R]
	err   error
}

// Len returns the number of elementary joins.
func (j Joiner[L, R]) Len() int {
	return len(j.parts)
}

// And returns a joiner holding j's joins followed by other's.
func (j Joiner[L, R]) And(other Joiner[L, R]) Joiner[L, R] {
	return And(j, other)
}

// And concatenates joiners in order.
func And[L, R any](joiners ...Joiner[L, R]) Joiner[L, R] {
	var out Joiner[L, R]
	for _, j := range joiners {
		if out.err == nil {
			out.err = j.err
		}
		out.parts = append(out.parts, j.parts...)
	}
	return out
}

// Split separates the leading indexing joins from the filtering tail and
// merges the tail into one predicate. The filter is nil when there is no
// filtering join. An indexing join after a filtering join is a
// configuration error.
func (j Joiner[L, R]) Split() ([]Index[L, R], func(L, R) bool, error) {
	if j.err != nil {
		return nil, nil, j.err
	}
	var indexes []Index[L, R]
	var filters []func(L, R) bool
	for i, p := range j.parts {
		if p.index != nil {
			if len(filters) > 0 {
				return nil, nil, plan.NewConfigError(plan.CodeIllegalJoinerOrder,
					"joiner #%d (%s) is an indexing joiner after a filtering joiner", i, p.index.Type)
			}
			indexes = append(indexes, *p.index)
			continue
		}
		filters = append(filters, p.filter)
	}
	return indexes, mergeFilters(filters), nil
}

func mergeFilters[L, R any](filters []func(L, R) bool) func(L, R) bool {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	}
	return func(l L, r R) bool {
		for _, f := range filters {
			if !f(l, r) {
				return false
			}
		}
		return true
	}
}

// Matches evaluates every join directly, without an index.
func (j Joiner[L, R]) Matches(l L, r R) bool {
	for _, p := range j.parts {
		if p.index != nil {
			if !p.index.Holds(l, r) {
				return false
			}
		} else if !p.filter(l, r) {
			return false
		}
	}
	return true
}

func nilFunction[L, R any](what string) Joiner[L, R] {
	return Joiner[L, R]{err: plan.NewConfigError(plan.CodeNilFunction, "%s joiner has a nil function", what)}
}

func indexing[L, R any, K any](t plan.JoinerType, left func(L) K, right func(R) K, compare func(a, b any) int) Joiner[L, R] {
	if left == nil || right == nil {
		return nilFunction[L, R](t.String())
	}
	return Joiner[L, R]{parts: []part[L, R]{{index: &Index[L, R]{
		Type:    t,
		Left:    func(l L) any { return left(l) },
		Right:   func(r R) any { return right(r) },
		Compare: compare,
	}}}}
}

func ordered[K cmp.Ordered]() func(a, b any) int {
	return func(a, b any) int { return cmp.Compare(a.(K), b.(K)) }
}

func comparing[K any](compare func(a, b K) int) func(a, b any) int {
	return func(a, b any) int { return compare(a.(K), b.(K)) }
}

// Equal joins when left(l) == right(r).
func Equal[L, R any, K comparable](left func(L) K, right func(R) K) Joiner[L, R] {
	return indexing(plan.Equal, left, right, nil)
}

// EqualBy joins two facts of the same type on the same key.
func EqualBy[A any, K comparable](key func(A) K) Joiner[A, A] {
	return Equal(key, key)
}

// LessThan joins when left(l) < right(r).
func LessThan[L, R any, K cmp.Ordered](left func(L) K, right func(R) K) Joiner[L, R] {
	return indexing(plan.LessThan, left, right, ordered[K]())
}

// LessThanOrEqual joins when left(l) <= right(r).
func LessThanOrEqual[L, R any, K cmp.Ordered](left func(L) K, right func(R) K) Joiner[L, R] {
	return indexing(plan.LessThanOrEqual, left, right, ordered[K]())
}

// GreaterThan joins when left(l) > right(r).
func GreaterThan[L, R any, K cmp.Ordered](left func(L) K, right func(R) K) Joiner[L, R] {
	return indexing(plan.GreaterThan, left, right, ordered[K]())
}

// GreaterThanOrEqual joins when left(l) >= right(r).
func GreaterThanOrEqual[L, R any, K cmp.Ordered](left func(L) K, right func(R) K) Joiner[L, R] {
	return indexing(plan.GreaterThanOrEqual, left, right, ordered[K]())
}

// Comparing joins when t holds for compare(left(l), right(r)). With Equal it
// joins keys whose == is not their equality, such as time.Time, through a
// sorted index instead of a hash index.
func Comparing[L, R, K any](t plan.JoinerType, left func(L) K, right func(R) K, compare func(a, b K) int) Joiner[L, R] {
	if compare == nil {
		return nilFunction[L, R](t.String())
	}
	return indexing(t, left, right, comparing(compare))
}

// Overlapping joins when the half-open ranges [leftStart, leftEnd) and
// [rightStart, rightEnd) overlap. It compiles to two range joins:
// leftEnd RANGE_GREATER_THAN rightStart and leftStart RANGE_LESS_THAN
// rightEnd.
func Overlapping[L, R any, K cmp.Ordered](leftStart, leftEnd func(L) K, rightStart, rightEnd func(R) K) Joiner[L, R] {
	return And(
		indexing(plan.RangeGreaterThan, leftEnd, rightStart, ordered[K]()),
		indexing(plan.RangeLessThan, leftStart, rightEnd, ordered[K]()),
	)
}

// OverlappingFunc is Overlapping with an explicit comparator, for range
// bounds such as time.Time.
func OverlappingFunc[L, R, K any](leftStart, leftEnd func(L) K, rightStart, rightEnd func(R) K, compare func(a, b K) int) Joiner[L, R] {
	if compare == nil {
		return nilFunction[L, R]("overlapping")
	}
	return And(
		indexing(plan.RangeGreaterThan, leftEnd, rightStart, comparing(compare)),
		indexing(plan.RangeLessThan, leftStart, rightEnd, comparing(compare)),
	)
}

// Filtering joins when pred(l, r) is true. It cannot be indexed.
func Filtering[L, R any](pred func(L, R) bool) Joiner[L, R] {
	if pred == nil {
		return nilFunction[L, R]("filtering")
	}
	return Joiner[L, R]{parts: []part[L, R]{{filter: pred}}}
}
