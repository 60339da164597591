package engine

import (
	"cmp"
	"slices"
	"sort"

	"github.com/roach88/scorestream/internal/plan"
)

// joinIndex indexes the facts of one pattern by the right key of one join.
//
// An index is built on first use within a pass and dropped with the pass, so
// it never has to follow fact changes.
type joinIndex struct {
	join   *plan.Join
	hash   map[any][]*handle
	sorted []indexEntry
}

type indexEntry struct {
	key any
	h   *handle
}

// indexable reports whether j can select candidates through an index:
// equality on comparable keys through a hash, ordering comparisons through
// a sorted slice.
func indexable(j *plan.Join) bool {
	switch j.Type {
	case plan.Equal:
		return true
	case plan.LessThan, plan.LessThanOrEqual:
		return j.Compare != nil
	}
	return false
}

// index returns the index of facts for j, building it on first use.
func (p *pass) index(j *plan.Join, facts []*handle) *joinIndex {
	if idx, ok := p.indexes[j]; ok {
		return idx
	}
	idx := &joinIndex{join: j}
	if j.Type == plan.Equal && j.Compare == nil {
		idx.hash = make(map[any][]*handle)
		for _, h := range facts {
			k := j.RightKey(h.fact)
			idx.hash[k] = append(idx.hash[k], h)
		}
	} else {
		idx.sorted = make([]indexEntry, len(facts))
		for i, h := range facts {
			idx.sorted[i] = indexEntry{key: j.RightKey(h.fact), h: h}
		}
		slices.SortStableFunc(idx.sorted, func(a, b indexEntry) int {
			return j.Compare(a.key, b.key)
		})
	}
	p.indexes[j] = idx
	return idx
}

// lookup returns the facts whose right key satisfies the join against left,
// in sequence order.
func (idx *joinIndex) lookup(left any) []*handle {
	if idx.hash != nil {
		return idx.hash[left]
	}
	j := idx.join
	entries := idx.sorted
	n := len(entries)
	lo, hi := 0, n
	switch {
	case j.Type == plan.Equal:
		lo = sort.Search(n, func(i int) bool { return j.Compare(entries[i].key, left) >= 0 })
		hi = sort.Search(n, func(i int) bool { return j.Compare(entries[i].key, left) > 0 })
	case j.Type == plan.LessThan && !j.Swapped:
		lo = sort.Search(n, func(i int) bool { return j.Compare(left, entries[i].key) < 0 })
	case j.Type == plan.LessThanOrEqual && !j.Swapped:
		lo = sort.Search(n, func(i int) bool { return j.Compare(left, entries[i].key) <= 0 })
	case j.Type == plan.LessThan:
		hi = sort.Search(n, func(i int) bool { return j.Compare(entries[i].key, left) >= 0 })
	case j.Type == plan.LessThanOrEqual:
		hi = sort.Search(n, func(i int) bool { return j.Compare(entries[i].key, left) > 0 })
	}
	if lo >= hi {
		return nil
	}
	out := make([]*handle, 0, hi-lo)
	for _, e := range entries[lo:hi] {
		out = append(out, e.h)
	}
	slices.SortFunc(out, func(a, b *handle) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}
