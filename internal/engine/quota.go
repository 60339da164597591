package engine

import "fmt"

// RowQuota tracks the number of rows produced during one scoring pass and
// enforces a maximum.
//
// Every fragment evaluation charges the rows it produces. Plans with
// unselective joins can produce a number of rows that grows with the
// product of the fact counts; the quota turns that into an error instead of
// exhausting memory. A limit of zero or less disables the check.
type RowQuota struct {
	maxRows int
	current int
}

// NewRowQuota creates a quota with the given limit.
func NewRowQuota(maxRows int) *RowQuota {
	return &RowQuota{maxRows: maxRows}
}

// Charge adds n rows and validates against the limit.
func (q *RowQuota) Charge(n int) *RuntimeError {
	q.current += n
	if q.maxRows > 0 && q.current > q.maxRows {
		return &RuntimeError{
			Code:    ErrCodeRowQuotaExceeded,
			Message: fmt.Sprintf("pass exceeded row quota (%d > %d)", q.current, q.maxRows),
			Details: map[string]string{
				"rows":     fmt.Sprintf("%d", q.current),
				"max_rows": fmt.Sprintf("%d", q.maxRows),
			},
		}
	}
	return nil
}

// Reset resets the row count to 0 at the start of a pass.
func (q *RowQuota) Reset() {
	q.current = 0
}

// Current returns the rows charged so far.
func (q *RowQuota) Current() int {
	return q.current
}

// MaxRows returns the limit.
func (q *RowQuota) MaxRows() int {
	return q.maxRows
}
