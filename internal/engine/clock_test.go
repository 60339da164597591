package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestClock_Sequence(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current(), "Current does not advance")

	c = NewClockAt(100)
	assert.Equal(t, int64(101), c.Next())
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock()
	const workers, calls = 16, 250

	results := make([][]int64, workers)
	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for range calls {
				results[w] = append(results[w], c.Next())
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	seen := make(map[int64]bool, workers*calls)
	for _, seqs := range results {
		for _, seq := range seqs {
			assert.False(t, seen[seq], "seq %d handed out twice", seq)
			seen[seq] = true
		}
	}
	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), c.Current())
}
