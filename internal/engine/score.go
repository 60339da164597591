package engine

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/roach88/scorestream/internal/plan"
)

// Score is the result of a scoring pass: the signed total and the total
// per constraint id.
type Score struct {
	Total       int64
	Constraints map[string]int64
}

func (s Score) clone() Score {
	return Score{Total: s.Total, Constraints: maps.Clone(s.Constraints)}
}

func (s Score) String() string {
	return fmt.Sprintf("%d", s.Total)
}

// ConstraintMatch is one live match of a constraint and its impact.
type ConstraintMatch struct {
	Constraint    string
	Impact        int64
	Justification any
	Indicted      []any
}

// ConstraintMatchTotal summarises the matches of one constraint.
type ConstraintMatchTotal struct {
	Constraint string
	Impact     int64
	Count      int
}

// Indictment is the summed impact of every match that indicts Object.
type Indictment struct {
	Object any
	Impact int64
	Count  int
}

// ruleMatches holds the live matches of one rule keyed by row lineage.
type ruleMatches struct {
	byLineage map[string]*ConstraintMatch
	order     []string
	total     int64
}

func newRuleMatches() *ruleMatches {
	return &ruleMatches{byLineage: make(map[string]*ConstraintMatch)}
}

// scoreRule replaces the matches of cr with rows. A row whose lineage was
// matched in the previous pass and whose inputs did not change keeps its
// previous impact without calling the consequence functions again.
func (s *Session) scoreRule(cr *compiledRule, rows []*row) error {
	prev := s.scores[cr.index]
	next := &ruleMatches{byLineage: make(map[string]*ConstraintMatch, len(rows))}
	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		lineage := r.lineage
		if n := seen[r.lineage]; n > 0 {
			lineage = fmt.Sprintf("%s#%d", r.lineage, n)
		}
		seen[r.lineage]++

		m, ok := prev.byLineage[lineage]
		if !ok || r.dirty {
			var err error
			if m, err = s.evaluateImpact(cr, r); err != nil {
				return err
			}
		}
		next.byLineage[lineage] = m
		next.order = append(next.order, lineage)
		next.total += m.Impact
	}
	s.scores[cr.index] = next
	return nil
}

// evaluateImpact runs the consequence functions of cr for one match. A
// panic in any of them is returned as ErrCodeConsequenceFailed.
func (s *Session) evaluateImpact(cr *compiledRule, r *row) (m *ConstraintMatch, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			m, err = nil, newConsequenceError(s.id, cr.id(), rec)
		}
	}()

	args := r.args(cr.outputs)
	ref := cr.rule.Constraint
	c := cr.rule.Consequence

	weight := int64(1)
	if c.Weight != nil {
		weight = c.Weight(args)
	}
	if weight < 0 && ref.Impact != plan.Mixed {
		return nil, &RuntimeError{
			Code:       ErrCodeConsequenceFailed,
			Message:    fmt.Sprintf("negative match weight %d for a %s constraint", weight, ref.Impact),
			Session:    s.id,
			Constraint: cr.id(),
		}
	}
	impact := ref.Impact.Sign() * ref.Weight * weight

	var justification any = args
	if c.Justify != nil {
		justification = c.Justify(args, impact)
	}
	indicted := args
	if c.Indict != nil {
		indicted = c.Indict(args)
	}
	return &ConstraintMatch{
		Constraint:    cr.id(),
		Impact:        impact,
		Justification: justification,
		Indicted:      indicted,
	}, nil
}

func (s *Session) totalScore() Score {
	score := Score{Constraints: make(map[string]int64, len(s.plan.rules))}
	for _, cr := range s.plan.rules {
		total := s.scores[cr.index].total
		score.Constraints[cr.id()] = total
		score.Total += total
	}
	return score
}

// ConstraintMatchTotals returns the match count and impact of every
// constraint, in plan order, as of the last pass.
func (s *Session) ConstraintMatchTotals() []ConstraintMatchTotal {
	out := make([]ConstraintMatchTotal, len(s.plan.rules))
	for i, cr := range s.plan.rules {
		rm := s.scores[cr.index]
		out[i] = ConstraintMatchTotal{
			Constraint: cr.id(),
			Impact:     rm.total,
			Count:      len(rm.order),
		}
	}
	return out
}

// Matches returns the live matches of a constraint in evaluation order. The
// boolean is false if the plan has no such constraint.
func (s *Session) Matches(constraintID string) ([]ConstraintMatch, bool) {
	cr, ok := s.plan.byID[constraintID]
	if !ok {
		return nil, false
	}
	rm := s.scores[cr.index]
	out := make([]ConstraintMatch, len(rm.order))
	for i, lineage := range rm.order {
		out[i] = *rm.byLineage[lineage]
	}
	return out, true
}

// Indictments sums the impact of every live match per indicted object, in
// order of first indictment. Comparable objects are identified by ==, the
// others by deep equality.
func (s *Session) Indictments() []Indictment {
	var out []*Indictment
	index := make(map[any]*Indictment)
	find := func(obj any) *Indictment {
		if obj == nil || reflect.TypeOf(obj).Comparable() {
			if ind, ok := index[obj]; ok {
				return ind
			}
			ind := &Indictment{Object: obj}
			index[obj] = ind
			out = append(out, ind)
			return ind
		}
		for _, ind := range out {
			if reflect.DeepEqual(ind.Object, obj) {
				return ind
			}
		}
		ind := &Indictment{Object: obj}
		out = append(out, ind)
		return ind
	}

	for _, cr := range s.plan.rules {
		rm := s.scores[cr.index]
		for _, lineage := range rm.order {
			m := rm.byLineage[lineage]
			for _, obj := range m.Indicted {
				ind := find(obj)
				ind.Impact += m.Impact
				ind.Count++
			}
		}
	}

	result := make([]Indictment, len(out))
	for i, ind := range out {
		result[i] = *ind
	}
	return result
}
