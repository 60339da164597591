package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/scorestream/internal/engine"
)

var _ engine.SessionIDGenerator = (*FixedSessionGenerator)(nil)

func TestFixedSessionGenerator(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "explicit", id: "run-42", want: "run-42"},
		{name: "default", id: "", want: DefaultSessionID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewFixedSessionGenerator(tt.id)
			assert.Equal(t, tt.want, gen.Generate())
			assert.Equal(t, tt.want, gen.Generate())
		})
	}
}

func TestFixedSessionGenerator_NamesEverySession(t *testing.T) {
	p, err := engine.Compile(nil, engine.WithSessionIDGenerator(NewFixedSessionGenerator("same")))
	if !assert.NoError(t, err) {
		return
	}

	var g errgroup.Group
	ids := make([]string, 8)
	for i := range ids {
		g.Go(func() error {
			s := p.NewSession()
			defer s.Close()
			ids[i] = s.ID()
			return nil
		})
	}
	assert.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, "same", id)
	}
}
