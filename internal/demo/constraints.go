package demo

import (
	"github.com/roach88/scorestream/internal/collector"
	"github.com/roach88/scorestream/internal/joiner"
	"github.com/roach88/scorestream/internal/row"
	"github.com/roach88/scorestream/internal/stream"
)

// Constraint names.
const (
	SameAge          = "Same age"
	TeamAgeSpread    = "Team age spread"
	LonelyPerson     = "Lonely person"
	DoubleBooked     = "Double booked"
	EmptyTeam        = "Empty team"
	CrowdedCohort    = "Crowded cohort"
	ActiveTeams      = "Active teams"
	UnassignedPerson = "Unassigned person"
)

// MaxAgeSpread is the largest age spread a team may have without penalty.
const MaxAgeSpread = 15

// CohortSize is the number of people of one team and decade above which
// every extra person is penalised.
const CohortSize = 2

// ID returns the fully qualified id of a demo constraint.
func ID(name string) string {
	return Package + "/" + name
}

// Provider defines the demo constraints. Unassigned people are invisible
// to every constraint except UnassignedPerson.
func Provider(f *stream.Factory) []*stream.Constraint {
	stream.RegisterNullityFilter(f, func(p *Person) bool { return p.Team != "" })

	return []*stream.Constraint{
		sameAge(f),
		teamAgeSpread(f),
		lonelyPerson(f),
		doubleBooked(f),
		emptyTeam(f),
		crowdedCohort(f),
		activeTeams(f),
		unassignedPerson(f),
	}
}

func sameAge(f *stream.Factory) *stream.Constraint {
	return stream.Join(stream.ForEach[*Person](f),
		joiner.Equal(personAge, personAge),
		joiner.LessThan(personName, personName),
	).
		Penalize(1).
		AsConstraintIn(Package, SameAge)
}

func teamAgeSpread(f *stream.Factory) *stream.Constraint {
	stats := collector.Compose3(
		collector.Min(personAge),
		collector.Max(personAge),
		collector.Average(personAge),
		func(lo, hi int, avg float64) AgeStats {
			return AgeStats{Min: lo, Max: hi, Average: avg}
		},
	)
	return stream.GroupByCollect(stream.ForEach[*Person](f), personTeam, stats).
		Filter(func(r row.Bi[string, AgeStats]) bool { return r.B.Spread() > MaxAgeSpread }).
		PenalizeBy(1, func(r row.Bi[string, AgeStats]) int64 {
			return int64(r.B.Spread() - MaxAgeSpread)
		}).
		IndictWith(func(r row.Bi[string, AgeStats]) []any { return []any{r.A} }).
		AsConstraintIn(Package, TeamAgeSpread)
}

func lonelyPerson(f *stream.Factory) *stream.Constraint {
	return stream.IfNotExistsOther(stream.ForEach[*Person](f), joiner.EqualBy(personTeam)).
		Penalize(2).
		AsConstraintIn(Package, LonelyPerson)
}

func doubleBooked(f *stream.Factory) *stream.Constraint {
	return stream.ForEachUniquePair(f, deskID,
		joiner.Equal(deskPerson, deskPerson),
		joiner.Overlapping(deskStart, deskEnd, deskStart, deskEnd),
	).
		PenalizeBy(1, func(r row.Bi[*Desk, *Desk]) int64 {
			return int64(min(r.A.End, r.B.End) - max(r.A.Start, r.B.Start))
		}).
		JustifyWith(func(r row.Bi[*Desk, *Desk], impact int64) any {
			return Overlap{Person: r.A.Person, First: r.A.ID, Second: r.B.ID, Slots: -impact}
		}).
		AsConstraintIn(Package, DoubleBooked)
}

// Overlap justifies a double booking.
type Overlap struct {
	Person string
	First  string
	Second string
	Slots  int64
}

func emptyTeam(f *stream.Factory) *stream.Constraint {
	return stream.IfNotExists(stream.ForEach[*Team](f), joiner.Equal(teamName, personTeam)).
		Penalize(5).
		AsConstraintIn(Package, EmptyTeam)
}

func crowdedCohort(f *stream.Factory) *stream.Constraint {
	decade := func(p *Person) int { return Decade(p.Age) }
	return stream.GroupBy2Collect(stream.ForEach[*Person](f), personTeam, decade, collector.Count[*Person]()).
		Filter(func(r row.Tri[string, int, int]) bool { return r.C > CohortSize }).
		PenalizeBy(1, func(r row.Tri[string, int, int]) int64 { return int64(r.C - CohortSize) }).
		AsConstraintIn(Package, CrowdedCohort)
}

func activeTeams(f *stream.Factory) *stream.Constraint {
	return stream.Distinct(stream.Map(stream.ForEach[*Person](f), personTeam)).
		Reward(1).
		AsConstraintIn(Package, ActiveTeams)
}

func unassignedPerson(f *stream.Factory) *stream.Constraint {
	return stream.ForEachIncludingUnassigned[*Person](f).
		Filter(func(p *Person) bool { return p.Team == "" }).
		Penalize(10).
		AsConstraintIn(Package, UnassignedPerson)
}
