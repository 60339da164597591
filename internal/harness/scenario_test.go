package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: "one person"
setup:
  - {kind: team, name: red}
steps:
  - insert: {kind: person, name: Ann, age: 20, team: red}
    expect:
      total: -1
  - update: {kind: person, name: Ann, age: 21}
  - retract: {kind: person, name: Ann}
assertions:
  - type: total
    score: -5
`))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 3)

	action, fact := s.Steps[0].change()
	assert.Equal(t, ActionInsert, action)
	assert.Equal(t, KindPerson, fact.Kind)
	require.NotNil(t, fact.Age)
	assert.Equal(t, 20, *fact.Age)
	require.NotNil(t, s.Steps[0].Expect.Total)
	assert.Equal(t, int64(-1), *s.Steps[0].Expect.Total)

	action, fact = s.Steps[1].change()
	assert.Equal(t, ActionUpdate, action)
	assert.Nil(t, fact.Team, "fields left out of an update stay nil")

	action, _ = s.Steps[2].change()
	assert.Equal(t, ActionRetract, action)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps:\n  - insert: {kind: team, name: red}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps:\n  - insert: {kind: team, name: red}\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\n",
			want: "steps list is required",
		},
		{
			name: "two changes in one step",
			yaml: "name: n\ndescription: d\nsteps:\n  - insert: {kind: team, name: red}\n    retract: {kind: team, name: red}\n",
			want: "steps[0]: exactly one of insert, update or retract is required",
		},
		{
			name: "unknown kind",
			yaml: "name: n\ndescription: d\nsteps:\n  - insert: {kind: room, name: r1}\n",
			want: `unknown kind "room"`,
		},
		{
			name: "person without name",
			yaml: "name: n\ndescription: d\nsteps:\n  - insert: {kind: person, age: 3}\n",
			want: "name is required for a person",
		},
		{
			name: "desk insert without range",
			yaml: "name: n\ndescription: d\nsteps:\n  - insert: {kind: desk, id: d1, person: Ann}\n",
			want: "required to insert a desk",
		},
		{
			name: "bad setup fact",
			yaml: "name: n\ndescription: d\nsetup:\n  - {kind: desk}\nsteps:\n  - insert: {kind: team, name: red}\n",
			want: "setup[0]: id is required for a desk",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nsteps:\n  - insert: {kind: team, name: red}\nassertions:\n  - type: trace_order\n",
			want: `assertions[0]: unknown assertion type "trace_order"`,
		},
		{
			name: "match count without constraint",
			yaml: "name: n\ndescription: d\nsteps:\n  - insert: {kind: team, name: red}\nassertions:\n  - type: match_count\n    count: 1\n",
			want: "constraint is required for match_count",
		},
		{
			name: "unknown field",
			yaml: "name: n\ndescription: d\nstep:\n  - insert: {kind: team, name: red}\n",
			want: "failed to parse YAML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"desk_overlap", "team_spread", "weighted_same_age"}, names)
}

func TestLoadScenarios_NamesBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: a\n"), 0o644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.yaml")
}
