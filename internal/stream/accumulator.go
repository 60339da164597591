package stream

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/roach88/scorestream/internal/collector"
	"github.com/roach88/scorestream/internal/plan"
)

// binding maps an accumulator's input variables to the slots of one match
// layout.
type binding struct {
	shape any
	slots []int
}

// bindingCell is a single-assignment cell for the binding of the first match
// layout an accumulator sees.
//
// The binding cannot be computed when the accumulator is defined because the
// layout is chosen by the runtime. It is written at most once, under mu, and
// published through an atomic pointer: a reader that observes a non-nil
// pointer also observes the fully built binding. After publication every
// read is lock free.
type bindingCell struct {
	mu    sync.Mutex
	value atomic.Pointer[binding]
}

func (c *bindingCell) resolve(m plan.Match, vars []*plan.Variable) []int {
	if b := c.value.Load(); b != nil && b.shape == m.Shape() {
		return b.slots
	}
	return c.resolveSlow(m, vars)
}

func (c *bindingCell) resolveSlow(m plan.Match, vars []*plan.Variable) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b := c.value.Load(); b != nil {
		if b.shape == m.Shape() {
			return b.slots
		}
		// A second layout for the same definition is resolved per call.
		return slotsOf(m, vars)
	}
	b := &binding{shape: m.Shape(), slots: slotsOf(m, vars)}
	c.value.Store(b)
	return b.slots
}

func slotsOf(m plan.Match, vars []*plan.Variable) []int {
	slots := make([]int, len(vars))
	for i, v := range vars {
		slot, ok := m.Slot(v)
		if !ok {
			panic(errors.AssertionFailedf("variable %s is not bound in the accumulated match", v))
		}
		slots[i] = slot
	}
	return slots
}

// accumulator adapts a typed collector to the plan's Accumulator contract.
// One accumulator is shared by every session evaluating the plan.
type accumulator[In, R any] struct {
	collector collector.Collector[In, R]
	inputs    []*plan.Variable
	pack      func(args []any) In
	binding   bindingCell
}

func newAccumulator[In, R any](c collector.Collector[In, R], inputs []*plan.Variable, pack func([]any) In) *accumulator[In, R] {
	return &accumulator[In, R]{collector: c, inputs: inputs, pack: pack}
}

func (a *accumulator[In, R]) Supply() any {
	return a.collector.Supply()
}

func (a *accumulator[In, R]) Accumulate(container any, m plan.Match) plan.Undo {
	slots := a.binding.resolve(m, a.inputs)
	args := make([]any, len(slots))
	for i, slot := range slots {
		args[i] = m.Value(slot)
	}
	return a.collector.Accumulate(container, a.pack(args))
}

func (a *accumulator[In, R]) Finish(container any) any {
	return a.collector.Finish(container)
}
