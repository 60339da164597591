// Package demo is a small staffing model used by the scenario harness and
// the command line tool. It exercises every builder path: joins with
// equality, ordering and range joiners, existence tests, single and
// multi-key group-bys, mapping and the nullity filter.
package demo

import "fmt"

// Package is the constraint package of every demo constraint.
const Package = "demo"

// Person is a member of at most one team. An empty Team means the person
// is unassigned.
type Person struct {
	Name string
	Age  int
	Team string
}

func (p *Person) String() string {
	return fmt.Sprintf("Person(%s)", p.Name)
}

// Team is a named team. Teams exist independently of their members.
type Team struct {
	Name string
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(%s)", t.Name)
}

// Desk is a desk booking by a person over the half-open slot range
// [Start, End).
type Desk struct {
	ID     string
	Person string
	Start  int
	End    int
}

func (d *Desk) String() string {
	return fmt.Sprintf("Desk(%s)", d.ID)
}

// AgeStats summarises the ages of a team.
type AgeStats struct {
	Min     int
	Max     int
	Average float64
}

// Spread is the difference between the oldest and the youngest age.
func (s AgeStats) Spread() int {
	return s.Max - s.Min
}

func personName(p *Person) string { return p.Name }
func personAge(p *Person) int     { return p.Age }
func personTeam(p *Person) string { return p.Team }
func teamName(t *Team) string     { return t.Name }
func deskID(d *Desk) string       { return d.ID }
func deskPerson(d *Desk) string   { return d.Person }
func deskStart(d *Desk) int       { return d.Start }
func deskEnd(d *Desk) int         { return d.End }

// Decade returns the decade of an age, e.g. 30 for 34.
func Decade(age int) int {
	return age / 10 * 10
}
