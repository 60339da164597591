// Package collector provides incremental aggregates with exact undo.
//
// A Collector supplies a mutable result container, accumulates one input at
// a time into it and projects it to a result. Every accumulate call returns
// an Undo that reverses exactly that contribution. Undoing all
// contributions, in any order, returns the container to a state whose result
// equals the result of a fresh container.
//
// Containers are never shared: the runtime supplies one container per group
// and per session. A Collector value itself only holds functions and may be
// used from any number of goroutines.
//
// Wherever one derived value can be contributed by more than one input
// (distinct counts, min/max, sets, maps), containers keep a reference count
// per value and only change the visible result when a count reaches or
// leaves zero. Undoing a value whose count is already zero is a caller
// contract violation and panics with an assertion failure.
package collector

import (
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/row"
)

// Undo reverses one accumulate call.
type Undo = plan.Undo

// Collector aggregates inputs of type In into a result of type R. The
// container type is hidden so that collectors over different containers can
// be composed and stored together.
type Collector[In, R any] struct {
	supply     func() any
	accumulate func(container any, in In) Undo
	finish     func(container any) R
}

// UniCollector aggregates a uni stream.
type UniCollector[A, R any] = Collector[A, R]

// BiCollector aggregates a bi stream.
type BiCollector[A, B, R any] = Collector[row.Bi[A, B], R]

// TriCollector aggregates a tri stream.
type TriCollector[A, B, C, R any] = Collector[row.Tri[A, B, C], R]

// QuadCollector aggregates a quad stream.
type QuadCollector[A, B, C, D, R any] = Collector[row.Quad[A, B, C, D], R]

// Of builds a collector from typed functions over a container C. C must be
// a reference type (usually a pointer) because accumulate mutates it.
func Of[In, C, R any](supply func() C, accumulate func(C, In) Undo, finish func(C) R) Collector[In, R] {
	if supply == nil || accumulate == nil || finish == nil {
		return Collector[In, R]{}
	}
	return Collector[In, R]{
		supply:     func() any { return supply() },
		accumulate: func(c any, in In) Undo { return accumulate(c.(C), in) },
		finish:     func(c any) R { return finish(c.(C)) },
	}
}

// Valid reports whether the collector has all three functions. The zero
// Collector is invalid.
func (c Collector[In, R]) Valid() bool {
	return c.supply != nil && c.accumulate != nil && c.finish != nil
}

// Supply creates a fresh container.
func (c Collector[In, R]) Supply() any {
	return c.supply()
}

// Accumulate adds in to container and returns its undo.
func (c Collector[In, R]) Accumulate(container any, in In) Undo {
	return c.accumulate(container, in)
}

// Finish projects container to the result.
func (c Collector[In, R]) Finish(container any) R {
	return c.finish(container)
}

// Result is a convenience that aggregates inputs in a fresh container.
func (c Collector[In, R]) Result(inputs ...In) R {
	container := c.Supply()
	for _, in := range inputs {
		c.Accumulate(container, in)
	}
	return c.Finish(container)
}
