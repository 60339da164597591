package collector

import (
	"cmp"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

const btreeDegree = 8

type bucket[T any] struct {
	value T
	count int
}

// multiset is a sorted value multiset. Values that compare equal share one
// bucket; the bucket keeps the first value that created it.
type multiset[T any] struct {
	tree *btree.BTreeG[*bucket[T]]
}

func newMultiset[T any](compare func(a, b T) int) *multiset[T] {
	return &multiset[T]{tree: btree.NewG(btreeDegree, func(a, b *bucket[T]) bool {
		return compare(a.value, b.value) < 0
	})}
}

func (m *multiset[T]) add(v T) Undo {
	probe := &bucket[T]{value: v}
	if b, ok := m.tree.Get(probe); ok {
		b.count++
	} else {
		probe.count = 1
		m.tree.ReplaceOrInsert(probe)
	}
	return func() { m.remove(v) }
}

func (m *multiset[T]) remove(v T) {
	b, ok := m.tree.Get(&bucket[T]{value: v})
	if !ok {
		panic(errors.AssertionFailedf("undo of %v without a matching accumulate", v))
	}
	b.count--
	if b.count == 0 {
		m.tree.Delete(b)
	}
}

func (m *multiset[T]) min() T {
	var zero T
	if b, ok := m.tree.Min(); ok {
		return b.value
	}
	return zero
}

func (m *multiset[T]) max() T {
	var zero T
	if b, ok := m.tree.Max(); ok {
		return b.value
	}
	return zero
}

func (m *multiset[T]) values() []T {
	out := make([]T, 0, m.tree.Len())
	m.tree.Ascend(func(b *bucket[T]) bool {
		out = append(out, b.value)
		return true
	})
	return out
}

func extremum[In, T any](fn func(In) T, compare func(a, b T) int, pick func(*multiset[T]) T) Collector[In, T] {
	if fn == nil || compare == nil {
		return Collector[In, T]{}
	}
	return Of(
		func() *multiset[T] { return newMultiset(compare) },
		func(m *multiset[T], in In) Undo { return m.add(fn(in)) },
		pick,
	)
}

// Min returns the smallest value of fn, or the zero value when empty.
func Min[In any, T cmp.Ordered](fn func(In) T) Collector[In, T] {
	return extremum(fn, cmp.Compare[T], (*multiset[T]).min)
}

// Max returns the largest value of fn, or the zero value when empty.
func Max[In any, T cmp.Ordered](fn func(In) T) Collector[In, T] {
	return extremum(fn, cmp.Compare[T], (*multiset[T]).max)
}

// MinFunc returns the smallest value of fn under compare. Values that
// compare equal are interchangeable in the result; compare must be total for
// a deterministic result.
func MinFunc[In, T any](fn func(In) T, compare func(a, b T) int) Collector[In, T] {
	return extremum(fn, compare, (*multiset[T]).min)
}

// MaxFunc returns the largest value of fn under compare.
func MaxFunc[In, T any](fn func(In) T, compare func(a, b T) int) Collector[In, T] {
	return extremum(fn, compare, (*multiset[T]).max)
}
