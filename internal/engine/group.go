package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/scorestream/internal/plan"
)

// groupState is the per-session state of one GroupBy fragment. It outlives
// the pass: every body row that contributed to a group is remembered with
// the undo actions of its accumulate calls.
type groupState struct {
	frag     int
	groups   map[any]*group
	order    []*group
	contribs map[string]*contribution
	nextID   int
}

// group is one distinct key. A group exists only while at least one body
// row contributes to it.
type group struct {
	id         int
	key        any
	containers []any
	results    []any
	size       int
	dirty      bool
	finished   bool
}

type contribution struct {
	lineage string
	key     any
	group   *group
	undos   []plan.Undo
	row     *row
}

func newGroupState(frag int) *groupState {
	return &groupState{
		frag:     frag,
		groups:   make(map[any]*group),
		contribs: make(map[string]*contribution),
	}
}

// group evaluates a GroupBy fragment. The body is evaluated from an empty
// row, then diffed against the contributions of the previous pass: new and
// changed rows are accumulated, changed and vanished rows are undone.
//
// The result is one row per group, in group creation order, binding the key
// and every accumulator output.
func (e *evaluator) group(g *plan.GroupBy) ([]*row, error) {
	frag := e.rule.groups[g]
	st := e.groups[frag]
	if st == nil {
		st = newGroupState(frag)
		e.groups[frag] = st
	}
	for _, grp := range st.order {
		grp.dirty = false
	}

	body, err := e.eval(g.Body, []*row{e.emptyRow()})
	if err != nil {
		return nil, err
	}

	inputs := e.rule.slotsOf(g.Inputs)
	seen := make(map[string]int, len(body))
	live := make(map[string]bool, len(body))
	for _, r := range body {
		lineage := r.lineage
		if n := seen[r.lineage]; n > 0 {
			lineage = fmt.Sprintf("%s#%d", r.lineage, n)
		}
		seen[r.lineage]++
		live[lineage] = true

		var key any
		if g.KeyFn != nil {
			key = g.KeyFn(r.args(inputs))
		}
		if c, ok := st.contribs[lineage]; ok {
			if !r.dirty && c.key == key {
				c.row = r
				continue
			}
			st.retract(c)
		}
		st.contribute(e.rule, g, lineage, key, r)
	}

	var gone []string
	for lineage := range st.contribs {
		if !live[lineage] {
			gone = append(gone, lineage)
		}
	}
	slices.Sort(gone)
	for _, lineage := range gone {
		st.retract(st.contribs[lineage])
	}
	st.sweep()

	return e.groupRows(st, g), nil
}

func (st *groupState) contribute(cr *compiledRule, g *plan.GroupBy, lineage string, key any, r *row) {
	grp, ok := st.groups[key]
	if !ok {
		grp = &group{
			id:         st.nextID,
			key:        key,
			containers: make([]any, len(g.Accumulates)),
		}
		for i, acc := range g.Accumulates {
			grp.containers[i] = acc.Def.Supply()
		}
		st.nextID++
		st.groups[key] = grp
		st.order = append(st.order, grp)
	}

	m := rowMatch{rule: cr, row: r}
	undos := make([]plan.Undo, len(g.Accumulates))
	for i, acc := range g.Accumulates {
		undos[i] = acc.Def.Accumulate(grp.containers[i], m)
	}
	grp.size++
	grp.dirty = true
	st.contribs[lineage] = &contribution{
		lineage: lineage,
		key:     key,
		group:   grp,
		undos:   undos,
		row:     r,
	}
}

// retract undoes a contribution, last accumulator first.
func (st *groupState) retract(c *contribution) {
	for i := len(c.undos) - 1; i >= 0; i-- {
		c.undos[i]()
	}
	c.group.size--
	c.group.dirty = true
	delete(st.contribs, c.lineage)
}

// sweep drops groups left without contributions.
func (st *groupState) sweep() {
	st.order = slices.DeleteFunc(st.order, func(grp *group) bool {
		if grp.size > 0 {
			return false
		}
		delete(st.groups, grp.key)
		return true
	})
}

func (e *evaluator) groupRows(st *groupState, g *plan.GroupBy) []*row {
	key := -1
	if g.Key != nil {
		key = e.rule.slots[g.Key]
	}
	outputs := make([]int, len(g.Accumulates))
	for i, acc := range g.Accumulates {
		outputs[i] = e.rule.slots[acc.Output]
	}

	rows := make([]*row, 0, len(st.order))
	for _, grp := range st.order {
		if grp.dirty || !grp.finished {
			grp.results = finish(g, grp)
			grp.finished = true
		}
		r := e.emptyRow()
		if key >= 0 {
			r.vals[key] = grp.key
		}
		for i, slot := range outputs {
			r.vals[slot] = grp.results[i]
		}
		r.lineage = fmt.Sprintf("g%d:%d", st.frag, grp.id)
		r.dirty = grp.dirty
		rows = append(rows, r)
	}
	return rows
}

func finish(g *plan.GroupBy, grp *group) []any {
	out := make([]any, len(g.Accumulates))
	for i, acc := range g.Accumulates {
		out[i] = acc.Def.Finish(grp.containers[i])
	}
	return out
}
