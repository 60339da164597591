package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeQueue_FIFO(t *testing.T) {
	q := newChangeQueue()
	for _, name := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Change{Type: ChangeInsert, Fact: name}))
	}
	assert.Equal(t, 3, q.Len())

	c, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "a", c.Fact)

	rest := q.Drain()
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].Fact)
	assert.Equal(t, "c", rest[1].Fact)

	_, ok = q.TryDequeue()
	assert.False(t, ok, "queue should be empty")
	assert.Empty(t, q.Drain())
}

func TestChangeQueue_Close(t *testing.T) {
	q := newChangeQueue()
	require.True(t, q.Enqueue(Change{Type: ChangeInsert, Fact: 1}))
	q.Close()

	assert.False(t, q.Enqueue(Change{Type: ChangeRetract, Fact: 1}))
	assert.Len(t, q.Drain(), 1, "pending changes survive Close")
}

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		typ  ChangeType
		want string
	}{
		{ChangeInsert, "insert"},
		{ChangeUpdate, "update"},
		{ChangeRetract, "retract"},
		{ChangeType(0), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}
