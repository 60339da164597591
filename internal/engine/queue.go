package engine

import "sync"

// ChangeType distinguishes between fact changes.
type ChangeType int

const (
	// ChangeInsert adds a fact.
	ChangeInsert ChangeType = iota + 1
	// ChangeUpdate marks a fact as modified in place.
	ChangeUpdate
	// ChangeRetract removes a fact.
	ChangeRetract
)

func (t ChangeType) String() string {
	switch t {
	case ChangeInsert:
		return "insert"
	case ChangeUpdate:
		return "update"
	case ChangeRetract:
		return "retract"
	default:
		return "unknown"
	}
}

// Change is one pending fact change.
type Change struct {
	Type ChangeType
	Fact any
}

// changeQueue is a FIFO of fact changes not yet applied to the session.
//
// Changes are applied in the order they were made at the start of the next
// CalculateScore. The queue is unbounded; a session accumulates changes
// between score calculations without blocking the caller.
type changeQueue struct {
	mu      sync.Mutex
	changes []Change
	closed  bool
}

// newChangeQueue creates an empty change queue.
func newChangeQueue() *changeQueue {
	return &changeQueue{
		changes: make([]Change, 0, 64),
	}
}

// Enqueue adds a change to the back of the queue.
// Returns false if the queue is closed.
func (q *changeQueue) Enqueue(c Change) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.changes = append(q.changes, c)
	return true
}

// TryDequeue removes and returns the front change.
// Returns (Change{}, false) if the queue is empty.
func (q *changeQueue) TryDequeue() (Change, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.changes) == 0 {
		return Change{}, false
	}

	c := q.changes[0]

	// Nil out the slot so the backing array does not keep the fact alive.
	q.changes[0] = Change{}

	if len(q.changes) == 1 {
		q.changes = q.changes[:0]
	} else {
		q.changes = q.changes[1:]
	}
	return c, true
}

// Drain removes and returns every pending change in order.
func (q *changeQueue) Drain() []Change {
	var out []Change
	for {
		c, ok := q.TryDequeue()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

// Len returns the number of pending changes.
func (q *changeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.changes)
}

// Close rejects every later change. Pending changes stay in the queue.
func (q *changeQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
