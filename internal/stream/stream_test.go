package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorestream/internal/collector"
	"github.com/roach88/scorestream/internal/joiner"
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/row"
	"github.com/roach88/scorestream/internal/tuple"
)

type person struct {
	Name string
	Age  int
	Team string
}

type team struct {
	Name string
}

func personAge(p *person) int     { return p.Age }
func personName(p *person) string { return p.Name }
func personTeam(p *person) string { return p.Team }

// fragmentKinds renders the top level of a plan as a list of fragment kinds.
func fragmentKinds(frags []plan.Fragment) []string {
	kinds := make([]string, len(frags))
	for i, f := range frags {
		switch frag := f.(type) {
		case *plan.Pattern:
			switch frag.Source.(type) {
			case plan.FactSource:
				kinds[i] = "pattern"
			case plan.BoundSource:
				kinds[i] = "anchor"
			case plan.FlattenSource:
				kinds[i] = "flatten"
			}
		case *plan.Join:
			kinds[i] = "join:" + frag.Type.String()
		case *plan.Filter:
			kinds[i] = "filter"
		case *plan.Exists:
			if frag.Negated {
				kinds[i] = "not-exists"
			} else {
				kinds[i] = "exists"
			}
		case *plan.GroupBy:
			kinds[i] = "group-by"
		case *plan.Bind:
			kinds[i] = "bind"
		}
	}
	return kinds
}

func requireRule(t *testing.T, c *Constraint) *plan.Rule {
	t.Helper()
	require.NoError(t, c.Err())
	require.NotNil(t, c.Rule())
	return c.Rule()
}

func TestForEach_NullityFilter(t *testing.T) {
	f := NewFactory()
	RegisterNullityFilter(f, func(p *person) bool { return p.Team != "" })

	assigned := ForEach[*person](f).Fragments()
	all := ForEachIncludingUnassigned[*person](f).Fragments()

	require.Len(t, assigned, 1)
	require.Len(t, all, 1)
	src := assigned[0].(*plan.Pattern).Source.(plan.FactSource)
	require.NotNil(t, src.Filter)
	assert.True(t, src.Filter(&person{Team: "red"}))
	assert.False(t, src.Filter(&person{}))
	assert.Nil(t, all[0].(*plan.Pattern).Source.(plan.FactSource).Filter)
	assert.Equal(t, plan.TypeOf[*person](), src.Type)
}

func TestVariableName(t *testing.T) {
	assert.Equal(t, "person", variableName(plan.TypeOf[*person]()))
	assert.Equal(t, "person", variableName(plan.TypeOf[[]person]()))
	assert.Equal(t, "int", variableName(plan.TypeOf[int]()))
	assert.Equal(t, "biTuple", variableName(plan.TypeOf[tuple.BiTuple[int, string]]()))
	assert.Equal(t, "value", variableName(plan.TypeOf[struct{}]()))
}

func TestJoin_IndexingThenFiltering(t *testing.T) {
	f := NewFactory()
	s := Join(ForEach[*person](f),
		joiner.EqualBy(personAge),
		joiner.GreaterThan(personName, personName),
		joiner.Filtering(func(a, b *person) bool { return a.Team != b.Team }),
	)
	require.NoError(t, s.Err())
	assert.Equal(t, 2, s.Arity())

	frags := s.Fragments()
	assert.Equal(t, []string{"pattern", "pattern", "join:EQUAL", "join:LESS_THAN", "filter"}, fragmentKinds(frags))

	gt := frags[3].(*plan.Join)
	assert.True(t, gt.Swapped, "GREATER_THAN is compiled to a swapped LESS_THAN")
	assert.Equal(t, plan.GreaterThan, gt.Declared())
	ann, bob := &person{Name: "Ann"}, &person{Name: "Bob"}
	assert.True(t, gt.Holds(gt.LeftKey([]any{bob}), gt.RightKey(ann)))
	assert.False(t, gt.Holds(gt.LeftKey([]any{ann}), gt.RightKey(bob)))

	filter := frags[4].(*plan.Filter)
	require.Len(t, filter.Inputs, 2)
	assert.True(t, filter.Predicate([]any{&person{Team: "a"}, &person{Team: "b"}}))
	assert.False(t, filter.Predicate([]any{&person{Team: "a"}, &person{Team: "a"}}))
}

func TestJoin_IllegalJoinerOrder(t *testing.T) {
	f := NewFactory()
	c := Join(ForEach[*person](f),
		joiner.Filtering(func(a, b *person) bool { return true }),
		joiner.EqualBy(personAge),
	).Penalize(1).AsConstraint("Illegal")

	require.Error(t, c.Err())
	assert.True(t, plan.HasCode(c.Err(), plan.CodeIllegalJoinerOrder))
	ce, ok := plan.AsConfigError(c.Err())
	require.True(t, ok)
	assert.Equal(t, "constraints/Illegal", ce.Constraint)
	assert.Nil(t, c.Rule())
}

func TestIfNotExists_IllegalJoinerOrder(t *testing.T) {
	f := NewFactory()
	s := IfNotExists(ForEach[*person](f),
		joiner.Filtering(func(p *person, tm *team) bool { return true }),
		joiner.Equal(personTeam, func(tm *team) string { return tm.Name }),
	)
	assert.True(t, plan.HasCode(s.Err(), plan.CodeIllegalJoinerOrder))

	// Every later operation carries the same error.
	later := s.Filter(func(*person) bool { return true })
	assert.Equal(t, s.Err(), later.Err())
}

func TestIfExists_BodyJoinsOuterVariable(t *testing.T) {
	f := NewFactory()
	s := IfExists(ForEach[*person](f), joiner.Equal(personTeam, func(tm *team) string { return tm.Name }))
	require.NoError(t, s.Err())
	assert.Equal(t, 1, s.Arity())

	frags := s.Fragments()
	require.Equal(t, []string{"pattern", "exists"}, fragmentKinds(frags))
	body := frags[1].(*plan.Exists).Body
	assert.Equal(t, []string{"pattern", "join:EQUAL"}, fragmentKinds(body))
	join := body[1].(*plan.Join)
	assert.Equal(t, []*plan.Variable{frags[0].(*plan.Pattern).Var}, join.Left)

	rule := requireRule(t, s.Penalize(1).AsConstraint("Team exists"))
	assert.Len(t, rule.Outputs, 1)
}

func TestIfExistsOther_ExcludesSameFact(t *testing.T) {
	f := NewFactory()
	s := IfNotExistsOther(ForEach[*person](f), joiner.EqualBy(personAge))
	body := s.Fragments()[1].(*plan.Exists).Body
	require.Equal(t, []string{"pattern", "join:EQUAL", "filter"}, fragmentKinds(body))

	p, q := &person{Age: 1}, &person{Age: 1}
	other := body[2].(*plan.Filter)
	assert.False(t, other.Predicate([]any{p, p}))
	assert.True(t, other.Predicate([]any{p, q}))
}

func TestForEachUniquePair(t *testing.T) {
	f := NewFactory()
	s := ForEachUniquePair(f, personName, joiner.EqualBy(personAge))
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"pattern", "pattern", "join:LESS_THAN", "join:EQUAL"}, fragmentKinds(s.Fragments()))

	nilID := ForEachUniquePair[*person, string](f, nil)
	assert.True(t, plan.HasCode(nilID.Err(), plan.CodeNilFunction))
}

func TestJoin_ArityLimit(t *testing.T) {
	f := NewFactory()
	b := Join[*person, *person](ForEach[*person](f))
	tr := JoinBi[*person, *person, *person](b)
	q := JoinTri[*person, *person, *person, *person](tr)
	require.NoError(t, q.Err())
	assert.Equal(t, 4, q.Arity())

	// A quad stream has no typed join; reach the untyped core directly.
	over := joinWith[row.Quad[*person, *person, *person, *person], *team](q, nil)
	assert.True(t, plan.HasCode(over.err, plan.CodeInvalidArity))
}

func TestBranching_DoesNotShareFragments(t *testing.T) {
	f := NewFactory()
	base := ForEach[*person](f)
	young := base.Filter(func(p *person) bool { return p.Age < 30 })
	old := base.Filter(func(p *person) bool { return p.Age >= 30 })

	assert.Len(t, base.Fragments(), 1)
	youngFrags, oldFrags := young.Fragments(), old.Fragments()
	require.Len(t, youngFrags, 2)
	require.Len(t, oldFrags, 2)

	p := &person{Age: 20}
	assert.True(t, youngFrags[1].(*plan.Filter).Predicate([]any{p}))
	assert.False(t, oldFrags[1].(*plan.Filter).Predicate([]any{p}))
}

func TestGroupBy_SingleKey(t *testing.T) {
	f := NewFactory()
	s := GroupBy(ForEach[*person](f), personTeam).
		Filter(func(name string) bool { return name != "" })
	require.NoError(t, s.Err())

	frags := s.Fragments()
	require.Equal(t, []string{"group-by", "anchor", "filter"}, fragmentKinds(frags))
	g := frags[0].(*plan.GroupBy)
	assert.Equal(t, "key", g.Key.Name)
	assert.Equal(t, "red", g.KeyFn([]any{&person{Team: "red"}}))
	assert.Same(t, g.Key, frags[1].(*plan.Pattern).Var)
	assert.Empty(t, g.Accumulates)

	requireRule(t, s.Penalize(1).AsConstraint("Teams"))
}

func TestGroupBy_MultiKeyDecomposition(t *testing.T) {
	f := NewFactory()
	s := GroupBy2Collect2(ForEach[*person](f), personTeam, personAge,
		collector.Count[*person](), collector.Max(personName))
	require.NoError(t, s.Err())
	assert.Equal(t, 4, s.Arity())

	frags := s.Fragments()
	require.Equal(t, []string{"group-by", "bind", "bind", "anchor"}, fragmentKinds(frags))

	g := frags[0].(*plan.GroupBy)
	assert.Equal(t, "groupKey", g.Key.Name)
	assert.Equal(t, plan.TypeOf[tuple.BiTuple[string, int]](), g.Key.Type)
	key := g.KeyFn([]any{&person{Team: "red", Age: 40}})
	assert.Equal(t, tuple.NewBi("red", 40), key)

	team, age := frags[1].(*plan.Bind), frags[2].(*plan.Bind)
	assert.Equal(t, []*plan.Variable{g.Key}, team.Inputs)
	assert.Equal(t, "red", team.Fn([]any{key}))
	assert.Equal(t, 40, age.Fn([]any{key}))

	require.Len(t, g.Accumulates, 2)
	assert.Same(t, g.Accumulates[1].Output, frags[3].(*plan.Pattern).Var)

	// The first collector output is detached: it is bound by the group-by
	// and has no fragment of its own.
	rule := requireRule(t, s.Penalize(1).AsConstraint("Per team and age"))
	assert.Equal(t, []*plan.Variable{team.Var, age.Var, g.Accumulates[0].Output, g.Accumulates[1].Output}, rule.Outputs)
}

func TestGroupBy_Errors(t *testing.T) {
	f := NewFactory()
	people := ForEach[*person](f)

	tests := []struct {
		name string
		err  error
		code plan.ErrorCode
	}{
		{
			name: "invalid collector",
			err:  Collect(people, collector.Collector[*person, int]{}).Err(),
			code: plan.CodeNoAccumulators,
		},
		{
			name: "nil key",
			err:  GroupBy[*person, string](people, nil).Err(),
			code: plan.CodeNilFunction,
		},
		{
			name: "no keys and no collectors",
			err:  people.lhs.groupBy(nil, nil, nil).err,
			code: plan.CodeNoAccumulators,
		},
		{
			name: "too many outputs",
			err: people.lhs.groupBy(
				[]keySpec{{name: "k", typ: plan.TypeOf[int](), fn: func([]any) any { return 0 }}}, nil,
				[]accSpec{{name: "a", valid: true}, {name: "b", valid: true}, {name: "c", valid: true}, {name: "d", valid: true}},
			).err,
			code: plan.CodeInvalidArity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.True(t, plan.HasCode(tt.err, tt.code), "got %v", tt.err)
		})
	}
}

func TestCollect_KeylessGroup(t *testing.T) {
	f := NewFactory()
	s := Collect2(ForEach[*person](f), collector.Count[*person](), collector.Average(personAge))
	require.NoError(t, s.Err())

	frags := s.Fragments()
	require.Equal(t, []string{"group-by", "anchor"}, fragmentKinds(frags))
	g := frags[0].(*plan.GroupBy)
	assert.Nil(t, g.Key)
	assert.Equal(t, "result1", g.Accumulates[0].Output.Name)
	assert.Equal(t, "result2", g.Accumulates[1].Output.Name)
}

func TestMap_AndDistinct(t *testing.T) {
	f := NewFactory()
	mapped := Map2(ForEach[*person](f), personTeam, personAge)
	require.NoError(t, mapped.Err())
	assert.Equal(t, []string{"pattern", "bind", "bind"}, fragmentKinds(mapped.Fragments()))

	distinct := Distinct(mapped)
	require.NoError(t, distinct.Err())
	assert.Equal(t, 2, distinct.Arity())
	frags := distinct.Fragments()
	require.Equal(t, []string{"group-by", "anchor", "bind", "bind"}, fragmentKinds(frags))

	g := frags[0].(*plan.GroupBy)
	key := g.KeyFn([]any{"red", 30})
	assert.Equal(t, row.Bi[string, int]{A: "red", B: 30}, key)
	assert.Equal(t, "red", frags[2].(*plan.Bind).Fn([]any{key}))
	assert.Equal(t, 30, frags[3].(*plan.Bind).Fn([]any{key}))

	requireRule(t, distinct.Penalize(1).AsConstraint("Distinct team ages"))

	nilMap := Map[*person, int](ForEach[*person](f), nil)
	assert.True(t, plan.HasCode(nilMap.Err(), plan.CodeNilFunction))
}

func TestFlattenLast(t *testing.T) {
	f := NewFactory()
	s := FlattenLastBi(
		Join(ForEach[*team](f), joiner.Equal(func(tm *team) string { return tm.Name }, personTeam)),
		func(p *person) []string { return []string{p.Name, p.Name} },
	)
	require.NoError(t, s.Err())
	frags := s.Fragments()
	require.Equal(t, []string{"pattern", "pattern", "join:EQUAL", "flatten"}, fragmentKinds(frags))

	flat := frags[3].(*plan.Pattern)
	src := flat.Source.(plan.FlattenSource)
	assert.Same(t, frags[1].(*plan.Pattern).Var, src.From)
	assert.Equal(t, []any{"Ann", "Ann"}, src.Fn(&person{Name: "Ann"}))

	requireRule(t, s.Penalize(1).AsConstraint("Flattened"))
}

func TestAsConstraint_Names(t *testing.T) {
	f := NewFactory(WithDefaultPackage("demo"))

	c := ForEach[*person](f).Penalize(1).AsConstraint("  Café ")
	requireRule(t, c)
	assert.Equal(t, "demo/Café", c.ID())

	empty := ForEach[*person](f).Penalize(1).AsConstraint("   ")
	assert.True(t, plan.HasCode(empty.Err(), plan.CodeInvalidName))

	in := ForEach[*person](f).Reward(2).AsConstraintIn("other", "Bonus")
	rule := requireRule(t, in)
	assert.Equal(t, "other/Bonus", rule.ID())
	assert.Equal(t, plan.Reward, rule.Constraint.Impact)
	assert.Equal(t, int64(2), rule.Constraint.Weight)
}

func TestConsequence(t *testing.T) {
	f := NewFactory()
	c := Join(ForEach[*person](f), joiner.EqualBy(personAge)).
		PenalizeBy(3, row.BiOf(func(a, b *person) int64 { return int64(a.Age) })).
		JustifyWith(func(r row.Bi[*person, *person], impact int64) any { return r.A.Name + "/" + r.B.Name }).
		IndictWith(Values[row.Bi[*person, *person]]).
		AsConstraint("Same age")
	rule := requireRule(t, c)

	ann, bob := &person{Name: "Ann", Age: 7}, &person{Name: "Bob", Age: 7}
	args := []any{ann, bob}
	assert.Equal(t, int64(7), rule.Consequence.Weight(args))
	assert.Equal(t, "Ann/Bob", rule.Consequence.Justify(args, -21))
	assert.Equal(t, []any{ann, bob}, rule.Consequence.Indict(args))

	nilWeight := ForEach[*person](f).RewardBy(1, nil).AsConstraint("Nil weight")
	assert.True(t, plan.HasCode(nilWeight.Err(), plan.CodeNilFunction))
}

func TestFactoryBuild(t *testing.T) {
	f := NewFactory()

	rules, err := f.Build(func(f *Factory) []*Constraint {
		return []*Constraint{
			ForEach[*person](f).Penalize(1).AsConstraint("A"),
			ForEach[*team](f).Reward(1).AsConstraint("B"),
		}
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "constraints/A", rules[0].ID())

	_, err = f.Build(func(f *Factory) []*Constraint {
		return []*Constraint{
			ForEach[*person](f).Penalize(1).AsConstraint("A"),
			ForEach[*team](f).Penalize(1).AsConstraint("A"),
		}
	})
	assert.True(t, plan.HasCode(err, plan.CodeDuplicateConstraint))

	_, err = f.Build(func(f *Factory) []*Constraint {
		return []*Constraint{ForEach[*person](f).Filter(nil).Penalize(1).AsConstraint("Nil filter")}
	})
	assert.True(t, plan.HasCode(err, plan.CodeNilFunction))

	_, err = f.Build(nil)
	assert.Error(t, err)
}
