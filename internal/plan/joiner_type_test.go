package plan

import (
	"cmp"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func compareInts(a, b any) int {
	return cmp.Compare(a.(int), b.(int))
}

func TestJoinerType_Flip(t *testing.T) {
	tests := []struct {
		in   JoinerType
		want JoinerType
	}{
		{Equal, Equal},
		{LessThan, GreaterThan},
		{LessThanOrEqual, GreaterThanOrEqual},
		{GreaterThan, LessThan},
		{GreaterThanOrEqual, LessThanOrEqual},
		{RangeLessThan, RangeGreaterThan},
		{RangeGreaterThan, RangeLessThan},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Flip())
			assert.Equal(t, tt.in, tt.in.Flip().Flip(), "flip must be an involution")
		})
	}
}

func TestJoinerType_Ascending(t *testing.T) {
	tests := []struct {
		in      JoinerType
		native  JoinerType
		swapped bool
	}{
		{Equal, Equal, false},
		{LessThan, LessThan, false},
		{LessThanOrEqual, LessThanOrEqual, false},
		{GreaterThan, LessThan, true},
		{GreaterThanOrEqual, LessThanOrEqual, true},
		{RangeLessThan, LessThan, false},
		{RangeGreaterThan, LessThan, true},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			native, swapped := tt.in.Ascending()
			assert.Equal(t, tt.native, native)
			assert.Equal(t, tt.swapped, swapped)
			assert.True(t, native.Native())
		})
	}
}

func TestJoinerType_String(t *testing.T) {
	assert.Equal(t, "GREATER_THAN_OR_EQUAL", GreaterThanOrEqual.String())
	assert.Equal(t, "UNKNOWN", JoinerType(99).String())
}

// Every declared comparison compiled onto a native type must agree with the
// declared comparison for all key pairs.
func TestJoin_FlipAndSwapPreservesSemantics(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	declared := []JoinerType{
		Equal, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual,
		RangeLessThan, RangeGreaterThan,
	}
	for _, jt := range declared {
		jt := jt
		native, swapped := jt.Ascending()
		j := &Join{Type: native, Swapped: swapped, Range: jt.IsRange(), Compare: compareInts}

		properties.Property(jt.String()+" compiles faithfully", prop.ForAll(
			func(a, b int) bool {
				return j.Holds(a, b) == jt.Matches(cmp.Compare(a, b)) && j.Declared() == jt
			},
			gen.IntRange(-20, 20), gen.IntRange(-20, 20),
		))
	}

	properties.Property("GREATER_THAN(a,b) == LESS_THAN(b,a)", prop.ForAll(
		func(a, b int) bool {
			return GreaterThan.Matches(cmp.Compare(a, b)) == LessThan.Matches(cmp.Compare(b, a)) &&
				GreaterThanOrEqual.Matches(cmp.Compare(a, b)) == LessThanOrEqual.Matches(cmp.Compare(b, a))
		},
		gen.Int(), gen.Int(),
	))

	properties.TestingRun(t)
}

func TestJoin_HoldsEqualWithoutComparator(t *testing.T) {
	j := &Join{Type: Equal}
	assert.True(t, j.Holds("a", "a"))
	assert.False(t, j.Holds("a", "b"))
}
