package tuple

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestBiTupleEquality(t *testing.T) {
	a := NewBi("x", 1)
	b := NewBi("x", 1)
	c := NewBi("x", 2)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b, "structurally equal tuples must compare equal with ==")
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.Equal(t, "x", a.A())
	assert.Equal(t, 1, a.B())
}

func TestTupleAsMapKey(t *testing.T) {
	counts := map[TriTuple[string, int, bool]]int{}
	counts[NewTri("a", 1, true)]++
	counts[NewTri("a", 1, true)]++
	counts[NewTri("a", 1, false)]++

	assert.Len(t, counts, 2)
	assert.Equal(t, 2, counts[NewTri("a", 1, true)])
}

func TestTupleString(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"bi", NewBi(1, "b").String(), "(1, b)"},
		{"tri", NewTri(1, 2, 3).String(), "(1, 2, 3)"},
		{"quad", NewQuad("a", "b", "c", "d").String(), "(a, b, c, d)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestQuadTupleStructuralEquality(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("equal slots give equal tuples and hashes", prop.ForAll(
		func(a int, b string, c int64, d bool) bool {
			x := NewQuad(a, b, c, d)
			y := NewQuad(a, b, c, d)
			return x.Equal(y) && x == y && x.Hash() == y.Hash()
		},
		gen.Int(), gen.AlphaString(), gen.Int64(), gen.Bool(),
	))

	properties.Property("changing any slot breaks equality", prop.ForAll(
		func(a int, b string, c int64, d bool) bool {
			x := NewQuad(a, b, c, d)
			return !x.Equal(NewQuad(a+1, b, c, d)) &&
				!x.Equal(NewQuad(a, b+"!", c, d)) &&
				!x.Equal(NewQuad(a, b, c-1, d)) &&
				!x.Equal(NewQuad(a, b, c, !d))
		},
		gen.Int(), gen.AlphaString(), gen.Int64(), gen.Bool(),
	))

	properties.TestingRun(t)
}
