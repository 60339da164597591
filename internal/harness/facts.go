package harness

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/scorestream/internal/demo"
)

// factKey names a live fact of a scenario.
type factKey struct {
	kind string
	key  string
}

func (f *FactSpec) key() factKey {
	if f.Kind == KindDesk {
		return factKey{kind: f.Kind, key: f.ID}
	}
	return factKey{kind: f.Kind, key: f.Name}
}

// build creates the demo fact described by f. Missing fields are zero.
func (f *FactSpec) build() any {
	switch f.Kind {
	case KindPerson:
		p := &demo.Person{Name: f.Name}
		f.apply(p)
		return p
	case KindTeam:
		return &demo.Team{Name: f.Name}
	default:
		d := &demo.Desk{ID: f.ID}
		f.apply(d)
		return d
	}
}

// apply changes the fields of fact that f sets. The key fields never
// change.
func (f *FactSpec) apply(fact any) {
	switch x := fact.(type) {
	case *demo.Person:
		if f.Age != nil {
			x.Age = *f.Age
		}
		if f.Team != nil {
			x.Team = *f.Team
		}
	case *demo.Desk:
		if f.Person != nil {
			x.Person = *f.Person
		}
		if f.Start != nil {
			x.Start = *f.Start
		}
		if f.End != nil {
			x.End = *f.End
		}
	}
}

// factSet tracks the facts a scenario has inserted and not yet retracted.
// The engine identifies facts by pointer, so updates mutate the fact in
// place.
type factSet map[factKey]any

func (fs factSet) insert(f *FactSpec) (any, error) {
	k := f.key()
	if _, ok := fs[k]; ok {
		return nil, errors.Newf("%s %q already exists", k.kind, k.key)
	}
	fact := f.build()
	fs[k] = fact
	return fact, nil
}

func (fs factSet) update(f *FactSpec) (any, error) {
	fact, ok := fs[f.key()]
	if !ok {
		return nil, errors.Newf("%s %q does not exist", f.Kind, f.key().key)
	}
	f.apply(fact)
	return fact, nil
}

func (fs factSet) retract(f *FactSpec) (any, error) {
	k := f.key()
	fact, ok := fs[k]
	if !ok {
		return nil, errors.Newf("%s %q does not exist", k.kind, k.key)
	}
	delete(fs, k)
	return fact, nil
}
