package collector

import "cmp"

// Set is an unordered set of distinct values.
type Set[T comparable] map[T]struct{}

// SetOf builds a set from values.
func SetOf[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of distinct values.
func (s Set[T]) Len() int {
	return len(s)
}

// ToSet collects the distinct values of fn.
func ToSet[In any, T comparable](fn func(In) T) Collector[In, Set[T]] {
	if fn == nil {
		return Collector[In, Set[T]]{}
	}
	return Of(
		newRefCounts[T],
		func(r *refCounts[T], in In) Undo { return r.add(fn(in)) },
		func(r *refCounts[T]) Set[T] {
			out := make(Set[T], len(r.counts))
			for v := range r.counts {
				out[v] = struct{}{}
			}
			return out
		},
	)
}

// ToSortedSet collects the distinct values of fn in ascending order.
func ToSortedSet[In any, T cmp.Ordered](fn func(In) T) Collector[In, []T] {
	return ToSortedSetFunc(fn, cmp.Compare[T])
}

// ToSortedSetFunc collects the distinct values of fn ordered by compare.
// Values comparing equal count as one.
func ToSortedSetFunc[In, T any](fn func(In) T, compare func(a, b T) int) Collector[In, []T] {
	if fn == nil || compare == nil {
		return Collector[In, []T]{}
	}
	return Of(
		func() *multiset[T] { return newMultiset(compare) },
		func(m *multiset[T], in In) Undo { return m.add(fn(in)) },
		(*multiset[T]).values,
	)
}
