package collector

import (
	"fmt"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorestream/internal/row"
)

type person struct {
	Name string
	Age  int
}

func age(p person) int { return p.Age }

// makeTestPeople returns Ann(20), Beth(25), Cathy(30), David(30), Eric(20).
func makeTestPeople() []person {
	return []person{
		{"Ann", 20}, {"Beth", 25}, {"Cathy", 30}, {"David", 30}, {"Eric", 20},
	}
}

// accumulateAll feeds inputs into a fresh container and returns the
// container and the undo of each input.
func accumulateAll[In, R any](c Collector[In, R], inputs []In) (any, []Undo) {
	container := c.Supply()
	undos := make([]Undo, len(inputs))
	for i, in := range inputs {
		undos[i] = c.Accumulate(container, in)
	}
	return container, undos
}

func TestConcreteScenario(t *testing.T) {
	people := makeTestPeople()

	assert.Equal(t, 3, CountDistinct(age).Result(people...))
	assert.Equal(t, 125, Sum(age).Result(people...))
	assert.Equal(t, 25.0, Average(age).Result(people...))
	assert.Equal(t, 20, Min(age).Result(people...))
	assert.Equal(t, 30, Max(age).Result(people...))
}

func TestConcreteScenario_OrderIndependentAndReversible(t *testing.T) {
	people := makeTestPeople()
	stats := Compose4(CountDistinct(age), Sum(age), Min(age), Max(age),
		func(distinct, sum, lo, hi int) [4]int { return [4]int{distinct, sum, lo, hi} })

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]person(nil), people...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, [4]int{3, 125, 20, 30}, stats.Result(shuffled...))
	}

	container, undos := accumulateAll(stats, people)

	undos[2]() // Cathy leaves
	assert.Equal(t, [4]int{3, 95, 20, 30}, stats.Finish(container), "David still holds age 30")

	undos[2] = stats.Accumulate(container, people[2])
	assert.Equal(t, [4]int{3, 125, 20, 30}, stats.Finish(container))

	undos[2]()
	undos[3]()
	assert.Equal(t, [4]int{2, 65, 20, 25}, stats.Finish(container), "no one is 30 any more")
}

func TestUndoExactness(t *testing.T) {
	type builtin struct {
		name      string
		collector Collector[int, string]
	}
	str := func(v any) string { return fmt.Sprint(v) }
	mod := func(v int) int { return v % 5 }
	builtins := []builtin{
		{"count", Map(Count[int](), func(n int) string { return str(n) })},
		{"countLong", Map(CountLong[int](), func(n int64) string { return str(n) })},
		{"countDistinct", Map(CountDistinct(mod), func(n int) string { return str(n) })},
		{"sum", Map(Sum(func(v int) int { return v }), func(n int) string { return str(n) })},
		{"min", Map(Min(mod), func(n int) string { return str(n) })},
		{"max", Map(Max(mod), func(n int) string { return str(n) })},
		{"average", Map(Average(mod), func(f float64) string { return str(f) })},
		{"toList", Map(ToList(mod), func(l []int) string { return str(l) })},
		{"toSet", Map(ToSet(mod), func(s Set[int]) string { return str(s.Len()) })},
		{"toSortedSet", Map(ToSortedSet(mod), func(l []int) string { return str(l) })},
		{"toMap", Map(ToMap(mod, func(v int) int { return v % 3 }), func(m map[int]Set[int]) string { return str(len(m)) })},
		{"toSortedMap", Map(ToSortedMap(mod, func(v int) int { return v % 3 }), func(m *SortedMap[int, Set[int]]) string { return str(m.Keys()) })},
		{"conditionally", Map(Conditionally(func(v int) bool { return v%2 == 0 }, Count[int]()), func(n int) string { return str(n) })},
		{"sumDecimal", Map(SumDecimal(func(v int) *apd.Decimal { return apd.New(int64(v), -2) }), func(d *apd.Decimal) string {
			var zero apd.Decimal
			return str(d.Cmp(&zero))
		})},
		{"sumBigInt", Map(SumBigInt(func(v int) *big.Int { return big.NewInt(int64(v)) }), func(b *big.Int) string { return b.String() })},
	}

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	for _, b := range builtins {
		c := b.collector
		empty := c.Result()
		properties.Property(b.name+" returns to empty after undoing everything in any order", prop.ForAll(
			func(values []int, seed int64) bool {
				container, undos := accumulateAll(c, values)
				rand.New(rand.NewSource(seed)).Shuffle(len(undos), func(i, j int) { undos[i], undos[j] = undos[j], undos[i] })
				for _, u := range undos {
					u()
				}
				return c.Finish(container) == empty
			},
			gen.SliceOf(gen.IntRange(0, 40)), gen.Int64(),
		))
	}
	properties.TestingRun(t)
}

func TestCountDistinctUndoAtZeroIsAssertion(t *testing.T) {
	c := CountDistinct(age)
	container := c.Supply()
	undo := c.Accumulate(container, person{"Ann", 20})
	undo()

	defer func() {
		r := recover()
		require.NotNil(t, r, "second undo must panic")
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.HasAssertionFailure(err))
	}()
	undo()
}

func TestToMapMultiplicity(t *testing.T) {
	type fact struct {
		id    int
		key   int
		value string
	}
	c := ToMap(func(f fact) int { return f.key }, func(f fact) string { return f.value })
	container, undos := accumulateAll(c, []fact{{1, 1, "a"}, {2, 1, "a"}})

	assert.Equal(t, map[int]Set[string]{1: SetOf("a")}, c.Finish(container))

	undos[0]()
	assert.Equal(t, map[int]Set[string]{1: SetOf("a")}, c.Finish(container), "one fact still contributes (1, a)")

	undos[1]()
	assert.Empty(t, c.Finish(container), "key 1 must be removed entirely")
}

func TestToMapMerge(t *testing.T) {
	concat := func(a, b string) string { return a + "+" + b }
	c := ToMapMerge(func(p person) int { return p.Age }, func(p person) string { return p.Name }, concat)
	people := makeTestPeople()
	container, undos := accumulateAll(c, people)

	assert.Equal(t, map[int]string{20: "Ann+Eric", 25: "Beth", 30: "Cathy+David"}, c.Finish(container))

	undos[0]()
	assert.Equal(t, map[int]string{20: "Eric", 25: "Beth", 30: "Cathy+David"}, c.Finish(container))

	// Same pair from a second fact does not merge twice.
	c.Accumulate(container, person{"Eric", 20})
	assert.Equal(t, "Eric", c.Finish(container)[20])
}

func TestToSortedMap(t *testing.T) {
	c := ToSortedMap(func(p person) string { return p.Name[:1] }, age)

	m := c.Result(makeTestPeople()...)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, m.Keys())
	got, ok := m.Get("C")
	require.True(t, ok)
	assert.True(t, got.Contains(30))

	var visited []string
	for k := range m.All() {
		visited = append(visited, k)
		if k == "B" {
			break
		}
	}
	assert.Equal(t, []string{"A", "B"}, visited)
}

func TestToSortedMap_KeysFollowUndo(t *testing.T) {
	c := ToSortedMap(age, func(p person) string { return p.Name })
	people := makeTestPeople()
	container, undos := accumulateAll(c, people)
	assert.Equal(t, []int{20, 25, 30}, c.Finish(container).Keys())

	undos[1]()
	assert.Equal(t, []int{20, 30}, c.Finish(container).Keys(), "Beth was the only 25")

	undos[0]()
	m := c.Finish(container)
	assert.Equal(t, []int{20, 30}, m.Keys(), "Eric keeps 20 alive")
	got, _ := m.Get(20)
	assert.Equal(t, SetOf("Eric"), got)

	c.Accumulate(container, person{"Zed", 10})
	assert.Equal(t, []int{10, 20, 30}, c.Finish(container).Keys())
}

func TestToSortedMapMerge(t *testing.T) {
	c := ToSortedMapMerge(age, func(p person) int { return 1 }, func(a, b int) int { return a + b })
	m := c.Result(makeTestPeople()...)
	assert.Equal(t, []int{20, 25, 30}, m.Keys())
	v, _ := m.Get(30)
	assert.Equal(t, 1, v, "equal values merge once")
}

func TestToListRemovesTheContributedElement(t *testing.T) {
	c := ToList(func(p person) int { return p.Age })
	people := makeTestPeople()
	container, undos := accumulateAll(c, people)

	assert.Equal(t, []int{20, 25, 30, 30, 20}, c.Finish(container))

	undos[4]() // Eric, the second 20
	assert.Equal(t, []int{20, 25, 30, 30}, c.Finish(container))

	undos[0]()
	undos[2]()
	assert.Equal(t, []int{25, 30}, c.Finish(container))
}

func TestToSortedSet(t *testing.T) {
	assert.Equal(t, []int{20, 25, 30}, ToSortedSet(age).Result(makeTestPeople()...))

	byLen := ToSortedSetFunc(func(p person) string { return p.Name }, func(a, b string) int { return len(a) - len(b) })
	assert.Equal(t, []string{"Ann", "Beth", "Cathy"}, byLen.Result(makeTestPeople()...),
		"names of equal length collapse into the first seen")
}

func TestEmptyResults(t *testing.T) {
	assert.Equal(t, 0, Min(age).Result())
	assert.Equal(t, 0.0, Average(age).Result())
	assert.Nil(t, AverageDecimal(func(p person) *apd.Decimal { return nil }).Result())
	assert.Empty(t, ToList(age).Result())
	assert.Equal(t, time.Duration(0), AverageDuration(func(p person) time.Duration { return 0 }).Result())
}

func TestAverageDecimal(t *testing.T) {
	c := AverageDecimal(func(p person) *apd.Decimal { return apd.New(int64(p.Age), 0) })

	got := c.Result(makeTestPeople()...)

	require.NotNil(t, got)
	assert.Equal(t, "25", got.String())

	third := AverageDecimal(func(v int) *apd.Decimal { return apd.New(int64(v), 0) }).Result(1, 0, 0)
	assert.Equal(t, "0.3333333333333333333333333333333333", third.String())
}

func TestAverageBigInt(t *testing.T) {
	c := AverageBigInt(func(p person) *big.Int { return big.NewInt(int64(p.Age)) })
	assert.Equal(t, "25", c.Result(makeTestPeople()...).String())
}

func TestAverageDuration(t *testing.T) {
	c := AverageDuration(func(d time.Duration) time.Duration { return d })
	assert.Equal(t, 2*time.Second, c.Result(time.Second, 3*time.Second))
}

func TestBiCollector(t *testing.T) {
	var c BiCollector[person, person, int] = Sum(func(r row.Bi[person, person]) int { return r.A.Age - r.B.Age })

	got := c.Result(row.Bi[person, person]{A: person{Age: 30}, B: person{Age: 20}})

	assert.Equal(t, 10, got)
}

func TestInvalidCollectors(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"zero value", Collector[int, int]{}.Valid()},
		{"nil mapping", Sum[int, int](nil).Valid()},
		{"compose with invalid part", Compose2(Count[int](), Collector[int, int]{}, func(a, b int) int { return a }).Valid()},
		{"conditionally without predicate", Conditionally(nil, Count[int]()).Valid()},
		{"of without finisher", Of[int, *counter[int], int](func() *counter[int] { return nil }, nil, nil).Valid()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.valid)
		})
	}
}
