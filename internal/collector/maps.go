package collector

import (
	"cmp"
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

// valueCounts counts the (key, value) pairs of one map key and remembers the
// order in which distinct values first appeared.
type valueCounts[V comparable] struct {
	counts map[V]int
	order  []V
}

// mapContainer holds the reference-counted pairs. index, when set, keeps the
// live keys in ascending order.
type mapContainer[K, V comparable] struct {
	keys  map[K]*valueCounts[V]
	index *btree.BTreeG[K]
}

func newMapContainer[K, V comparable]() *mapContainer[K, V] {
	return &mapContainer[K, V]{keys: make(map[K]*valueCounts[V])}
}

func newSortedMapContainer[K cmp.Ordered, V comparable]() *mapContainer[K, V] {
	m := newMapContainer[K, V]()
	m.index = btree.NewG[K](btreeDegree, func(a, b K) bool { return a < b })
	return m
}

func (m *mapContainer[K, V]) add(k K, v V) Undo {
	vc, ok := m.keys[k]
	if !ok {
		vc = &valueCounts[V]{counts: make(map[V]int)}
		m.keys[k] = vc
		if m.index != nil {
			m.index.ReplaceOrInsert(k)
		}
	}
	if vc.counts[v] == 0 {
		vc.order = append(vc.order, v)
	}
	vc.counts[v]++
	return func() { m.remove(k, v) }
}

func (m *mapContainer[K, V]) remove(k K, v V) {
	vc, ok := m.keys[k]
	if !ok || vc.counts[v] <= 0 {
		panic(errors.AssertionFailedf("undo of (%v, %v) without a matching accumulate", k, v))
	}
	vc.counts[v]--
	if vc.counts[v] > 0 {
		return
	}
	delete(vc.counts, v)
	vc.order = slices.DeleteFunc(vc.order, func(x V) bool { return x == v })
	if len(vc.counts) == 0 {
		delete(m.keys, k)
		if m.index != nil {
			m.index.Delete(k)
		}
	}
}

func (m *mapContainer[K, V]) valueSets() map[K]Set[V] {
	out := make(map[K]Set[V], len(m.keys))
	for k, vc := range m.keys {
		out[k] = SetOf(vc.order...)
	}
	return out
}

func (m *mapContainer[K, V]) merged(merge func(a, b V) V) map[K]V {
	out := make(map[K]V, len(m.keys))
	for k, vc := range m.keys {
		acc := vc.order[0]
		for _, v := range vc.order[1:] {
			acc = merge(acc, v)
		}
		out[k] = acc
	}
	return out
}

func mapOf[In any, K, V comparable, R any](supply func() *mapContainer[K, V], keyFn func(In) K, valueFn func(In) V, finish func(*mapContainer[K, V]) R) Collector[In, R] {
	if keyFn == nil || valueFn == nil {
		return Collector[In, R]{}
	}
	return Of(
		supply,
		func(m *mapContainer[K, V], in In) Undo { return m.add(keyFn(in), valueFn(in)) },
		finish,
	)
}

// ToMap collects, per key, the set of distinct values contributed to it.
//
// Each (key, value) pair is reference counted: the same pair contributed by
// two inputs stays visible until both are undone, and a key disappears once
// its last value is undone.
func ToMap[In any, K, V comparable](keyFn func(In) K, valueFn func(In) V) Collector[In, map[K]Set[V]] {
	return mapOf(newMapContainer[K, V], keyFn, valueFn, (*mapContainer[K, V]).valueSets)
}

// ToMapMerge collects one value per key, merging the distinct values
// contributed to a key in the order they first appeared. The merge is
// recomputed from the surviving values after an undo, so merge need not be
// reversible.
func ToMapMerge[In any, K, V comparable](keyFn func(In) K, valueFn func(In) V, merge func(a, b V) V) Collector[In, map[K]V] {
	if merge == nil {
		return Collector[In, map[K]V]{}
	}
	return mapOf(newMapContainer[K, V], keyFn, valueFn, func(m *mapContainer[K, V]) map[K]V { return m.merged(merge) })
}

// SortedMap is a read-only map whose keys iterate in ascending order.
type SortedMap[K cmp.Ordered, V any] struct {
	keys   []K
	values map[K]V
}

func sortedMapOf[K cmp.Ordered, V any](index *btree.BTreeG[K], values map[K]V) *SortedMap[K, V] {
	keys := make([]K, 0, index.Len())
	index.Ascend(func(k K) bool {
		keys = append(keys, k)
		return true
	})
	return &SortedMap[K, V]{keys: keys, values: values}
}

// Len returns the number of keys.
func (m *SortedMap[K, V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in ascending order.
func (m *SortedMap[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// Get returns the value of k.
func (m *SortedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

// All iterates the entries in ascending key order.
func (m *SortedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// ToSortedMap is ToMap with keys in ascending order.
func ToSortedMap[In any, K cmp.Ordered, V comparable](keyFn func(In) K, valueFn func(In) V) Collector[In, *SortedMap[K, Set[V]]] {
	return mapOf(newSortedMapContainer[K, V], keyFn, valueFn, func(m *mapContainer[K, V]) *SortedMap[K, Set[V]] {
		return sortedMapOf(m.index, m.valueSets())
	})
}

// ToSortedMapMerge is ToMapMerge with keys in ascending order.
func ToSortedMapMerge[In any, K cmp.Ordered, V comparable](keyFn func(In) K, valueFn func(In) V, merge func(a, b V) V) Collector[In, *SortedMap[K, V]] {
	if merge == nil {
		return Collector[In, *SortedMap[K, V]]{}
	}
	return mapOf(newSortedMapContainer[K, V], keyFn, valueFn, func(m *mapContainer[K, V]) *SortedMap[K, V] {
		return sortedMapOf(m.index, m.merged(merge))
	})
}
