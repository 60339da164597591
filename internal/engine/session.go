package engine

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
)

// handle is a fact known to the session.
type handle struct {
	fact  any
	typ   reflect.Type
	seq   int64
	token string
	dirty bool
}

// Session holds a working set of facts and keeps the score of a plan up to
// date as facts change.
//
// Changes are queued by Insert, Update and Retract and applied by the next
// CalculateScore. Group-by state persists across passes: each pass only
// accumulates contributions that are new or changed and undoes those that
// vanished, so a pass after a small change does work proportional to the
// change in every aggregate.
//
// Thread-safety model:
//   - a Session must be used from one goroutine at a time
//   - sessions of the same Plan are independent and may run concurrently
//
// An error returned by CalculateScore leaves the session in an undefined
// state; every later call returns the same error.
type Session struct {
	id     string
	plan   *Plan
	log    *slog.Logger
	clock  *Clock
	queue  *changeQueue
	known  map[any]bool
	facts  map[any]*handle
	groups [][]*groupState
	scores []*ruleMatches
	score  Score
	err    error
}

func newSession(p *Plan) *Session {
	s := &Session{
		id:     p.opts.ids.Generate(),
		plan:   p,
		clock:  NewClock(),
		queue:  newChangeQueue(),
		known:  make(map[any]bool),
		facts:  make(map[any]*handle),
		groups: make([][]*groupState, len(p.rules)),
		scores: make([]*ruleMatches, len(p.rules)),
		score:  Score{Constraints: make(map[string]int64, len(p.rules))},
	}
	s.log = p.opts.logger.With("session", s.id)
	for i, cr := range p.rules {
		s.groups[i] = make([]*groupState, len(cr.groups))
		s.scores[i] = newRuleMatches()
		s.score.Constraints[cr.id()] = 0
	}
	s.log.Info("session created", "plan", p.hash)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Pending returns the number of changes not yet applied.
func (s *Session) Pending() int {
	return s.queue.Len()
}

func (s *Session) checkFact(fact any) error {
	if s.err != nil {
		return s.err
	}
	if fact == nil {
		return newFactError(ErrCodeInvalidFact, s.id, fact, "fact is nil")
	}
	if !reflect.TypeOf(fact).Comparable() {
		return newFactError(ErrCodeInvalidFact, s.id, fact, fmt.Sprintf("fact of type %T is not comparable; insert a pointer", fact))
	}
	return nil
}

func (s *Session) enqueue(c Change) error {
	if !s.queue.Enqueue(c) {
		return newFactError(ErrCodeSessionClosed, s.id, c.Fact, "session is closed")
	}
	return nil
}

// Insert queues a new fact. Facts are identified by ==, so pointer facts
// are identified by address.
func (s *Session) Insert(fact any) error {
	if err := s.checkFact(fact); err != nil {
		return err
	}
	if s.known[fact] {
		return newFactError(ErrCodeDuplicateFact, s.id, fact, "fact already inserted")
	}
	if err := s.enqueue(Change{Type: ChangeInsert, Fact: fact}); err != nil {
		return err
	}
	s.known[fact] = true
	return nil
}

// Update queues a notification that fact was modified in place.
func (s *Session) Update(fact any) error {
	if err := s.checkFact(fact); err != nil {
		return err
	}
	if !s.known[fact] {
		return newFactError(ErrCodeUnknownFact, s.id, fact, "update of unknown fact")
	}
	return s.enqueue(Change{Type: ChangeUpdate, Fact: fact})
}

// Retract queues the removal of fact.
func (s *Session) Retract(fact any) error {
	if err := s.checkFact(fact); err != nil {
		return err
	}
	if !s.known[fact] {
		return newFactError(ErrCodeUnknownFact, s.id, fact, "retract of unknown fact")
	}
	if err := s.enqueue(Change{Type: ChangeRetract, Fact: fact}); err != nil {
		return err
	}
	delete(s.known, fact)
	return nil
}

// Close rejects every later change.
func (s *Session) Close() {
	s.queue.Close()
	s.log.Debug("session closed")
}

// apply drains the change queue into the fact set.
func (s *Session) apply(changes []Change) {
	for _, c := range changes {
		switch c.Type {
		case ChangeInsert:
			seq := s.clock.Next()
			s.facts[c.Fact] = &handle{
				fact:  c.Fact,
				typ:   reflect.TypeOf(c.Fact),
				seq:   seq,
				token: fmt.Sprintf("f%d", seq),
			}
		case ChangeUpdate:
			if h := s.facts[c.Fact]; h != nil {
				h.dirty = true
			}
		case ChangeRetract:
			delete(s.facts, c.Fact)
		}
	}
}

func (s *Session) orderedFacts() []*handle {
	out := make([]*handle, 0, len(s.facts))
	for _, h := range s.facts {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b *handle) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}

// CalculateScore applies the pending changes and returns the new score.
func (s *Session) CalculateScore(ctx context.Context) (Score, error) {
	if s.err != nil {
		return Score{}, s.err
	}
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}

	changes := s.queue.Drain()
	s.apply(changes)

	p := newPass(s)
	for _, cr := range s.plan.rules {
		if err := ctx.Err(); err != nil {
			return Score{}, s.fail(err)
		}
		e := &evaluator{pass: p, rule: cr, groups: s.groups[cr.index]}
		rows, err := e.eval(cr.rule.Fragments, []*row{e.emptyRow()})
		if err != nil {
			return Score{}, s.fail(err)
		}
		if err := s.scoreRule(cr, rows); err != nil {
			return Score{}, s.fail(err)
		}
		if s.plan.opts.assertions {
			if err := s.checkGroups(cr); err != nil {
				return Score{}, s.fail(err)
			}
		}
	}
	for _, h := range s.facts {
		h.dirty = false
	}

	s.score = s.totalScore()
	s.log.Debug("score calculated",
		"plan", s.plan.hash,
		"changes", len(changes),
		"facts", len(s.facts),
		"rows", p.quota.Current(),
		"total", s.score.Total,
	)
	return s.score.clone(), nil
}

// fail records err as fatal for the session.
func (s *Session) fail(err error) error {
	var re *RuntimeError
	if errors.As(err, &re) && re.Session == "" {
		re.Session = s.id
	}
	s.err = err
	s.log.Error("scoring pass failed", "error", err)
	return err
}

// Score returns the score of the last successful pass.
func (s *Session) Score() Score {
	return s.score.clone()
}
