package engine

import (
	"math/big"
	"reflect"
	"slices"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/scorestream/internal/plan"
)

// checkGroups recomputes every group of cr from its current contributions
// with fresh containers and compares the result with the incrementally
// maintained one.
func (s *Session) checkGroups(cr *compiledRule) error {
	for frag, g := range cr.byFrag {
		st := s.groups[cr.index][frag]
		if st == nil {
			continue
		}
		members := make(map[*group][]*contribution, len(st.order))
		for _, c := range st.contribs {
			members[c.group] = append(members[c.group], c)
		}
		for _, grp := range st.order {
			contribs := members[grp]
			slices.SortFunc(contribs, func(a, b *contribution) int {
				return strings.Compare(a.lineage, b.lineage)
			})
			if len(contribs) != grp.size {
				return newDriftError(s.id, cr.id(), grp.key, grp.size, len(contribs))
			}
			incremental := finish(g, grp)
			fresh := recompute(cr, g, contribs)
			for i := range incremental {
				if !sameResult(incremental[i], fresh[i]) {
					return newDriftError(s.id, cr.id(), grp.key, incremental[i], fresh[i])
				}
			}
		}
	}
	return nil
}

func recompute(cr *compiledRule, g *plan.GroupBy, contribs []*contribution) []any {
	out := make([]any, len(g.Accumulates))
	for i, acc := range g.Accumulates {
		container := acc.Def.Supply()
		for _, c := range contribs {
			acc.Def.Accumulate(container, rowMatch{rule: cr, row: c.row})
		}
		out[i] = acc.Def.Finish(container)
	}
	return out
}

// sameResult compares two finished accumulator results. Decimal and big
// integer results compare by value; slices compare as multisets since the
// order of a recomputed list follows contribution order, not history.
func sameResult(a, b any) bool {
	switch x := a.(type) {
	case *apd.Decimal:
		y, ok := b.(*apd.Decimal)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		return x.Cmp(y) == 0
	case *big.Int:
		y, ok := b.(*big.Int)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		return x.Cmp(y) == 0
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsValid() && vb.IsValid() && va.Kind() == reflect.Slice && vb.Kind() == reflect.Slice {
		if va.Type() != vb.Type() || va.Len() != vb.Len() {
			return false
		}
		used := make([]bool, vb.Len())
	outer:
		for i := 0; i < va.Len(); i++ {
			for j := 0; j < vb.Len(); j++ {
				if !used[j] && sameResult(va.Index(i).Interface(), vb.Index(j).Interface()) {
					used[j] = true
					continue outer
				}
			}
			return false
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
