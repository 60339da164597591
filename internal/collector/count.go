package collector

import "github.com/cockroachdb/errors"

type counter[N int | int64] struct {
	n N
}

func countOf[In any, N int | int64]() Collector[In, N] {
	return Of(
		func() *counter[N] { return &counter[N]{} },
		func(c *counter[N], _ In) Undo {
			c.n++
			return func() { c.n-- }
		},
		func(c *counter[N]) N { return c.n },
	)
}

// Count counts inputs.
func Count[In any]() Collector[In, int] {
	return countOf[In, int]()
}

// CountLong counts inputs as an int64.
func CountLong[In any]() Collector[In, int64] {
	return countOf[In, int64]()
}

// refCounts is a value multiset keyed by equality.
type refCounts[T comparable] struct {
	counts map[T]int
}

func newRefCounts[T comparable]() *refCounts[T] {
	return &refCounts[T]{counts: make(map[T]int)}
}

func (r *refCounts[T]) add(v T) Undo {
	r.counts[v]++
	return func() { r.remove(v) }
}

func (r *refCounts[T]) remove(v T) {
	n := r.counts[v]
	if n <= 0 {
		panic(errors.AssertionFailedf("undo of %v without a matching accumulate", v))
	}
	if n == 1 {
		delete(r.counts, v)
		return
	}
	r.counts[v] = n - 1
}

func countDistinctOf[In any, T comparable, N int | int64](fn func(In) T) Collector[In, N] {
	if fn == nil {
		return Collector[In, N]{}
	}
	return Of(
		newRefCounts[T],
		func(r *refCounts[T], in In) Undo { return r.add(fn(in)) },
		func(r *refCounts[T]) N { return N(len(r.counts)) },
	)
}

// CountDistinct counts the distinct values of fn.
func CountDistinct[In any, T comparable](fn func(In) T) Collector[In, int] {
	return countDistinctOf[In, T, int](fn)
}

// CountDistinctLong counts the distinct values of fn as an int64.
func CountDistinctLong[In any, T comparable](fn func(In) T) Collector[In, int64] {
	return countDistinctOf[In, T, int64](fn)
}
