package joiner

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorestream/internal/plan"
)

type shift struct {
	Employee string
	Start    int
	End      int
}

func identity(v int) int { return v }

func TestSplit_IndexingThenFiltering(t *testing.T) {
	j := And(
		Equal(func(s shift) string { return s.Employee }, func(o shift) string { return o.Employee }),
		LessThan(func(s shift) int { return s.Start }, func(o shift) int { return o.Start }),
		Filtering(func(s, o shift) bool { return s.End > 0 }),
		Filtering(func(s, o shift) bool { return o.End > 0 }),
	)

	indexes, filter, err := j.Split()

	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.Equal(t, plan.Equal, indexes[0].Type)
	assert.Equal(t, plan.LessThan, indexes[1].Type)
	require.NotNil(t, filter)
	assert.True(t, filter(shift{End: 1}, shift{End: 1}))
	assert.False(t, filter(shift{End: 1}, shift{End: 0}), "merged filter must require every predicate")
}

func TestSplit_IllegalOrder(t *testing.T) {
	eq := Equal(identity, identity)
	j := And(eq, Filtering(func(a, b int) bool { return true }), eq)

	_, _, err := j.Split()

	require.Error(t, err)
	assert.True(t, plan.HasCode(err, plan.CodeIllegalJoinerOrder))
	assert.Contains(t, err.Error(), "joiner #2 (EQUAL)")
}

func TestSplit_Empty(t *testing.T) {
	indexes, filter, err := Joiner[int, int]{}.Split()

	require.NoError(t, err)
	assert.Empty(t, indexes)
	assert.Nil(t, filter)
}

func TestNilFunctionIsDeferred(t *testing.T) {
	j := And(Equal(identity, identity), Filtering[int, int](nil))

	_, _, err := j.Split()

	assert.True(t, plan.HasCode(err, plan.CodeNilFunction))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		joiner Joiner[int, int]
		l, r   int
		want   bool
	}{
		{"equal holds", Equal(identity, identity), 3, 3, true},
		{"equal fails", Equal(identity, identity), 3, 4, false},
		{"less than", LessThan(identity, identity), 3, 4, true},
		{"less than equal keys", LessThan(identity, identity), 4, 4, false},
		{"less than or equal", LessThanOrEqual(identity, identity), 4, 4, true},
		{"greater than", GreaterThan(identity, identity), 5, 4, true},
		{"greater than or equal", GreaterThanOrEqual(identity, identity), 4, 4, true},
		{"filtering", Filtering(func(l, r int) bool { return l+r == 7 }), 3, 4, true},
		{"empty joiner", Joiner[int, int]{}, 1, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.joiner.Matches(tt.l, tt.r))
		})
	}
}

func TestOverlapping(t *testing.T) {
	j := Overlapping(
		func(s shift) int { return s.Start }, func(s shift) int { return s.End },
		func(s shift) int { return s.Start }, func(s shift) int { return s.End },
	)

	indexes, filter, err := j.Split()
	require.NoError(t, err)
	assert.Nil(t, filter)
	require.Len(t, indexes, 2)
	assert.Equal(t, plan.RangeGreaterThan, indexes[0].Type)
	assert.Equal(t, plan.RangeLessThan, indexes[1].Type)

	tests := []struct {
		name string
		a, b shift
		want bool
	}{
		{"disjoint", shift{Start: 0, End: 5}, shift{Start: 5, End: 9}, false},
		{"overlap", shift{Start: 0, End: 6}, shift{Start: 5, End: 9}, true},
		{"contained", shift{Start: 0, End: 10}, shift{Start: 2, End: 3}, true},
		{"before", shift{Start: 7, End: 9}, shift{Start: 0, End: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, j.Matches(tt.a, tt.b))
			assert.Equal(t, tt.want, j.Matches(tt.b, tt.a), "overlap is symmetric")
		})
	}
}

func TestOverlappingFunc(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	type booking struct{ from, to time.Time }
	start := func(b booking) time.Time { return b.from }
	end := func(b booking) time.Time { return b.to }
	j := OverlappingFunc(start, end, start, end, func(a, b time.Time) int { return a.Compare(b) })

	morning := booking{base, base.Add(2 * time.Hour)}
	lunch := booking{base.Add(time.Hour), base.Add(3 * time.Hour)}
	evening := booking{base.Add(8 * time.Hour), base.Add(9 * time.Hour)}

	assert.True(t, j.Matches(morning, lunch))
	assert.False(t, j.Matches(morning, evening))
}

func TestComparing(t *testing.T) {
	byLength := func(a, b string) int { return len(a) - len(b) }
	j := Comparing[string, string](plan.GreaterThan, strings.TrimSpace, strings.TrimSpace, byLength)

	assert.True(t, j.Matches("abc", "ab"))
	assert.False(t, j.Matches("a", "ab"))

	sameLength := Comparing[string, string](plan.Equal, strings.TrimSpace, strings.TrimSpace, byLength)
	indexes, filters, err := sameLength.Split()
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Nil(t, filters)
	assert.Equal(t, plan.Equal, indexes[0].Type)
	assert.NotNil(t, indexes[0].Compare, "equality through the comparator, not ==")
	assert.True(t, sameLength.Matches("abc", " xyz "))
	assert.False(t, sameLength.Matches("abc", "ab"))
}

func TestComparing_EqualUsesComparator(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("CET", 3600))
	id := func(v time.Time) time.Time { return v }

	assert.False(t, Equal(id, id).Matches(utc, local), "== compares the location too")
	assert.True(t, Comparing[time.Time, time.Time](plan.Equal, id, id, time.Time.Compare).Matches(utc, local))
}

func TestJoinerDuality(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("greaterThan(a,b) == lessThan(b,a)", prop.ForAll(
		func(a, b int) bool {
			return GreaterThan(identity, identity).Matches(a, b) == LessThan(identity, identity).Matches(b, a)
		},
		gen.IntRange(-10, 10), gen.IntRange(-10, 10),
	))

	properties.Property("greaterThanOrEqual(a,b) == lessThanOrEqual(b,a)", prop.ForAll(
		func(a, b int) bool {
			return GreaterThanOrEqual(identity, identity).Matches(a, b) == LessThanOrEqual(identity, identity).Matches(b, a)
		},
		gen.IntRange(-10, 10), gen.IntRange(-10, 10),
	))

	properties.TestingRun(t)
}
