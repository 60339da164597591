package plan

// Undo exactly reverses one Accumulate call on the container it was issued
// for. Runtimes call it at most once.
type Undo func()

// NoUndo is returned when an accumulate call changed nothing.
func NoUndo() {}

// Match exposes the values bound for one body result of a GroupBy.
type Match interface {
	// Slot returns the position of v in this match's layout.
	Slot(v *Variable) (int, bool)
	// Value returns the value at a slot returned by Slot.
	Value(slot int) any
	// Shape identifies the layout. Matches with equal shapes resolve every
	// variable to the same slot.
	Shape() any
}

// Accumulator is an incremental aggregate over GroupBy body results.
//
// An Accumulator definition is shared by every session evaluating the plan,
// possibly concurrently. Containers returned by Supply are per group and
// per session and are never shared.
type Accumulator interface {
	Supply() any
	Accumulate(container any, m Match) Undo
	Finish(container any) any
}
