package engine

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/roach88/scorestream/internal/plan"
)

// row is one partial match: a value per slot of the rule's layout.
//
// lineage names the facts, flattened elements and groups the row was built
// from. It identifies the row across passes: a row with the same lineage
// in two consecutive passes is the same match. dirty is set when any of
// those inputs changed in the current pass.
type row struct {
	vals    []any
	lineage string
	dirty   bool
}

func (r *row) args(slots []int) []any {
	out := make([]any, len(slots))
	for i, s := range slots {
		out[i] = r.vals[s]
	}
	return out
}

// extend returns a copy of r with slot bound to v.
func (r *row) extend(slot int, v any, token string, dirty bool) *row {
	vals := make([]any, len(r.vals))
	copy(vals, r.vals)
	vals[slot] = v
	lineage := r.lineage
	if token != "" {
		if lineage != "" {
			lineage += "/"
		}
		lineage += token
	}
	return &row{vals: vals, lineage: lineage, dirty: r.dirty || dirty}
}

// pass holds the state shared by every rule during one CalculateScore.
type pass struct {
	s       *Session
	facts   []*handle
	byType  map[reflect.Type][]*handle
	sources map[*plan.Pattern][]*handle
	indexes map[*plan.Join]*joinIndex
	quota   *RowQuota
}

func newPass(s *Session) *pass {
	return &pass{
		s:       s,
		facts:   s.orderedFacts(),
		byType:  make(map[reflect.Type][]*handle),
		sources: make(map[*plan.Pattern][]*handle),
		indexes: make(map[*plan.Join]*joinIndex),
		quota:   NewRowQuota(s.plan.opts.maxRows),
	}
}

// ofType returns the facts assignable to typ in sequence order.
func (p *pass) ofType(typ reflect.Type) []*handle {
	if hs, ok := p.byType[typ]; ok {
		return hs
	}
	var hs []*handle
	for _, h := range p.facts {
		if h.typ == typ || (typ.Kind() == reflect.Interface && h.typ.Implements(typ)) {
			hs = append(hs, h)
		}
	}
	p.byType[typ] = hs
	return hs
}

// source returns the facts a fact pattern yields, after its nullity filter.
func (p *pass) source(pat *plan.Pattern, src plan.FactSource) []*handle {
	if hs, ok := p.sources[pat]; ok {
		return hs
	}
	hs := p.ofType(src.Type)
	if src.Filter != nil {
		kept := make([]*handle, 0, len(hs))
		for _, h := range hs {
			if src.Filter(h.fact) {
				kept = append(kept, h)
			}
		}
		hs = kept
	}
	p.sources[pat] = hs
	return hs
}

// evaluator evaluates the fragments of one rule.
type evaluator struct {
	pass   *pass
	rule   *compiledRule
	groups []*groupState
}

func (e *evaluator) emptyRow() *row {
	return &row{vals: make([]any, e.rule.width)}
}

// eval runs fragments over rows and returns the surviving rows.
func (e *evaluator) eval(fragments []plan.Fragment, rows []*row) ([]*row, error) {
	for i := 0; i < len(fragments); i++ {
		var err error
		switch frag := fragments[i].(type) {
		case *plan.Pattern:
			switch src := frag.Source.(type) {
			case plan.FactSource:
				var joins []*plan.Join
				for i+1 < len(fragments) {
					j, ok := fragments[i+1].(*plan.Join)
					if !ok || j.Right != frag.Var {
						break
					}
					joins = append(joins, j)
					i++
				}
				rows = e.matchFacts(frag, src, joins, rows)
			case plan.BoundSource:
				// The variable is already bound; the pattern only anchors it.
			case plan.FlattenSource:
				rows = e.flatten(frag.Var, src, rows)
			}
		case *plan.Join:
			rows = e.filterJoin(frag, rows)
		case *plan.Filter:
			rows = e.filter(frag, rows)
		case *plan.Exists:
			rows, err = e.exists(frag, rows)
		case *plan.GroupBy:
			rows, err = e.group(frag)
		case *plan.Bind:
			rows = e.bind(frag, rows)
		default:
			err = errors.AssertionFailedf("unknown fragment type %T", frag)
		}
		if err != nil {
			return nil, err
		}
		if qerr := e.pass.quota.Charge(len(rows)); qerr != nil {
			qerr.Constraint = e.rule.id()
			return nil, qerr
		}
		if len(rows) == 0 {
			return nil, nil
		}
	}
	return rows, nil
}

// boundJoin is a join with its left slots resolved.
type boundJoin struct {
	join *plan.Join
	left []int
}

func (b boundJoin) holds(r *row, right any) bool {
	return b.join.Holds(b.join.LeftKey(r.args(b.left)), b.join.RightKey(right))
}

// matchFacts extends every row with every fact of the pattern's source that
// satisfies joins. With indexing enabled the first indexable join selects
// the candidates and the remaining joins are checked per candidate.
func (e *evaluator) matchFacts(pat *plan.Pattern, src plan.FactSource, joins []*plan.Join, rows []*row) []*row {
	facts := e.pass.source(pat, src)
	if len(facts) == 0 {
		return nil
	}
	slot := e.rule.slots[pat.Var]
	bound := make([]boundJoin, len(joins))
	for i, j := range joins {
		bound[i] = boundJoin{join: j, left: e.rule.slotsOf(j.Left)}
	}

	indexed := -1
	if e.pass.s.plan.opts.indexing {
		for i, j := range joins {
			if indexable(j) {
				indexed = i
				break
			}
		}
	}

	var out []*row
	for _, r := range rows {
		candidates := facts
		if indexed >= 0 {
			b := bound[indexed]
			candidates = e.pass.index(b.join, facts).lookup(b.join.LeftKey(r.args(b.left)))
		}
	next:
		for _, h := range candidates {
			for i, b := range bound {
				if i != indexed && !b.holds(r, h.fact) {
					continue next
				}
			}
			out = append(out, r.extend(slot, h.fact, h.token, h.dirty))
		}
	}
	return out
}

// filterJoin evaluates a join that does not directly follow its pattern.
func (e *evaluator) filterJoin(j *plan.Join, rows []*row) []*row {
	b := boundJoin{join: j, left: e.rule.slotsOf(j.Left)}
	right := e.rule.slots[j.Right]
	var out []*row
	for _, r := range rows {
		if b.holds(r, r.vals[right]) {
			out = append(out, r)
		}
	}
	return out
}

func (e *evaluator) flatten(v *plan.Variable, src plan.FlattenSource, rows []*row) []*row {
	slot := e.rule.slots[v]
	from := e.rule.slots[src.From]
	var out []*row
	for _, r := range rows {
		for i, elem := range src.Fn(r.vals[from]) {
			out = append(out, r.extend(slot, elem, fmt.Sprintf("i%d.%d", slot, i), false))
		}
	}
	return out
}

func (e *evaluator) filter(f *plan.Filter, rows []*row) []*row {
	slots := e.rule.slotsOf(f.Inputs)
	out := rows[:0:0]
	for _, r := range rows {
		if f.Predicate(r.args(slots)) {
			out = append(out, r)
		}
	}
	return out
}

func (e *evaluator) exists(x *plan.Exists, rows []*row) ([]*row, error) {
	var out []*row
	for _, r := range rows {
		body, err := e.eval(x.Body, []*row{r})
		if err != nil {
			return nil, err
		}
		if (len(body) > 0) != x.Negated {
			out = append(out, r)
		}
	}
	return out, nil
}

func (e *evaluator) bind(b *plan.Bind, rows []*row) []*row {
	slots := e.rule.slotsOf(b.Inputs)
	slot := e.rule.slots[b.Var]
	out := make([]*row, len(rows))
	for i, r := range rows {
		out[i] = r.extend(slot, b.Fn(r.args(slots)), "", false)
	}
	return out
}

// rowMatch exposes a row to accumulators. Every row of a rule shares the
// rule's layout, so the rule itself is the shape.
type rowMatch struct {
	rule *compiledRule
	row  *row
}

func (m rowMatch) Slot(v *plan.Variable) (int, bool) {
	s, ok := m.rule.slots[v]
	return s, ok
}

func (m rowMatch) Value(slot int) any { return m.row.vals[slot] }

func (m rowMatch) Shape() any { return m.rule }
