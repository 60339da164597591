package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string
	Age  int
}

func makeTestRule(f *CounterFactory) (*Rule, *Variable, *Variable) {
	a := f.NewVariable("a", TypeOf[*person]())
	b := f.NewVariable("b", TypeOf[*person]())
	return &Rule{
		Constraint: ConstraintRef{Package: "test", Name: "same age", Weight: 1},
		Fragments: []Fragment{
			&Pattern{Var: a, Source: FactSource{Type: TypeOf[*person]()}},
			&Pattern{Var: b, Source: FactSource{Type: TypeOf[*person]()}},
			&Join{
				Right:    b,
				Left:     []*Variable{a},
				LeftKey:  func(args []any) any { return args[0].(*person).Age },
				RightKey: func(v any) any { return v.(*person).Age },
				Type:     Equal,
			},
		},
		Outputs: []*Variable{a, b},
	}, a, b
}

func TestValidate_WellFormedRule(t *testing.T) {
	rule, _, _ := makeTestRule(NewVariableFactory())

	result := Validate(rule)

	assert.True(t, result.Valid, "problems: %v", result.Problems)
	assert.Empty(t, result.Problems)
}

func TestValidate_UnboundInput(t *testing.T) {
	f := NewVariableFactory()
	a := f.NewVariable("a", TypeOf[int]())
	ghost := f.NewVariable("ghost", TypeOf[int]())
	rule := &Rule{
		Fragments: []Fragment{
			&Pattern{Var: a, Source: FactSource{Type: TypeOf[int]()}},
			&Filter{Inputs: []*Variable{a, ghost}, Predicate: func([]any) bool { return true }},
		},
		Outputs: []*Variable{a},
	}

	result := Validate(rule)

	assert.False(t, result.Valid)
	require.Len(t, result.Problems, 1)
	assert.Contains(t, result.Problems[0], "ghost#2")
}

func TestValidate_JoinMustFollowPattern(t *testing.T) {
	rule, a, b := makeTestRule(NewVariableFactory())
	rule.Fragments = []Fragment{
		rule.Fragments[0],
		rule.Fragments[1],
		&Filter{Inputs: []*Variable{a, b}, Predicate: func([]any) bool { return true }},
		rule.Fragments[2],
	}

	result := Validate(rule)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "does not follow its pattern")
}

func TestValidate_NonNativeJoin(t *testing.T) {
	rule, _, _ := makeTestRule(NewVariableFactory())
	join := *rule.Fragments[2].(*Join)
	join.Type = GreaterThan
	join.Compare = func(a, b any) int { return 0 }
	rule.Fragments[2] = &join

	result := Validate(rule)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "non-native type GREATER_THAN")
}

func TestValidate_GroupByScope(t *testing.T) {
	f := NewVariableFactory()
	p := f.NewVariable("p", TypeOf[*person]())
	key := f.NewVariable("age", TypeOf[int]())

	t.Run("body variables go out of scope", func(t *testing.T) {
		rule := &Rule{
			Fragments: []Fragment{
				&GroupBy{
					Body:   []Fragment{&Pattern{Var: p, Source: FactSource{Type: TypeOf[*person]()}}},
					Inputs: []*Variable{p},
					Key:    key,
					KeyFn:  func(args []any) any { return args[0].(*person).Age },
				},
			},
			Outputs: []*Variable{key, p},
		}

		result := Validate(rule)

		assert.False(t, result.Valid)
		require.Len(t, result.Problems, 1)
		assert.Contains(t, result.Problems[0], "output p#1")
	})

	t.Run("keyless group-by needs an accumulator", func(t *testing.T) {
		rule := &Rule{
			Fragments: []Fragment{
				&GroupBy{
					Body:   []Fragment{&Pattern{Var: p, Source: FactSource{Type: TypeOf[*person]()}}},
					Inputs: []*Variable{p},
				},
			},
		}

		result := Validate(rule)

		assert.False(t, result.Valid)
		assert.Contains(t, result.Problems[0], "neither a key nor an accumulator")
	})
}

func TestValidate_ExistsSeesOuterScope(t *testing.T) {
	f := NewVariableFactory()
	a := f.NewVariable("a", TypeOf[*person]())
	other := f.NewVariable("other", TypeOf[*person]())
	rule := &Rule{
		Fragments: []Fragment{
			&Pattern{Var: a, Source: FactSource{Type: TypeOf[*person]()}},
			&Exists{Negated: true, Body: []Fragment{
				&Pattern{Var: other, Source: FactSource{Type: TypeOf[*person]()}},
				&Filter{Inputs: []*Variable{a, other}, Predicate: func([]any) bool { return true }},
			}},
		},
		Outputs: []*Variable{a},
	}

	result := Validate(rule)

	assert.True(t, result.Valid, "problems: %v", result.Problems)
}

func TestValidate_NilRule(t *testing.T) {
	result := Validate(nil)
	assert.False(t, result.Valid)
}

func TestRule_Variables(t *testing.T) {
	rule, a, b := makeTestRule(NewVariableFactory())

	assert.Equal(t, []*Variable{a, b}, rule.Variables())
	assert.Equal(t, "test/same age", rule.ID())
}

func TestConfigError(t *testing.T) {
	err := NewConfigError(CodeIllegalJoinerOrder, "joiner %d is indexing", 2)
	assert.Equal(t, "E201: joiner 2 is indexing", err.Error())

	named := err.WithConstraint("demo/x")
	assert.Equal(t, `E201: constraint "demo/x": joiner 2 is indexing`, named.Error())
	assert.Same(t, named, named.WithConstraint("other"))
	assert.True(t, HasCode(named, CodeIllegalJoinerOrder))
	assert.False(t, HasCode(named, CodeDetachedVariable))
}
