package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorestream/internal/engine"
	"github.com/roach88/scorestream/internal/plan"
)

func TestLoadString_Defaults(t *testing.T) {
	for _, src := range []string{"", "engine: {}", "constraints: {}"} {
		cfg, err := LoadString(src)
		require.NoError(t, err, "source %q", src)
		assert.Equal(t, Default(), cfg)
	}
	assert.Equal(t, engine.DefaultMaxRows, Default().Engine.MaxRows)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "scorestream.cue"))
	require.NoError(t, err)

	assert.Equal(t, EngineConfig{Indexing: false, Assertions: true, MaxRows: 5000, LogLevel: "debug"}, cfg.Engine)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Len(t, cfg.EngineOptions(), 3)

	assert.False(t, cfg.Enabled("demo/Same age"))
	assert.True(t, cfg.Enabled("demo/Empty team"))
	assert.True(t, cfg.Enabled("demo/Not mentioned"))
	require.NotNil(t, cfg.Constraints["demo/Empty team"].Weight)
	assert.Equal(t, int64(2), *cfg.Constraints["demo/Empty team"].Weight)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"syntax", "engine: {", ErrLoadFailed},
		{"unknown field", "engine: {threads: 4}", ErrSchema},
		{"wrong type", "engine: {indexing: 1}", ErrSchema},
		{"negative rows", "engine: {maxRows: -1}", ErrSchema},
		{"bad level", `engine: {logLevel: "trace"}`, ErrSchema},
		{"negative weight", `constraints: {"demo/x": {weight: -1}}`, ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadString(tt.src)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.code, ve.Code, ve.Error())
		})
	}

	_, err := Load(filepath.Join("testdata", "missing.cue"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrLoadFailed, ve.Code)
}

func rules(names ...string) []*plan.Rule {
	out := make([]*plan.Rule, len(names))
	for i, name := range names {
		out[i] = &plan.Rule{Constraint: plan.ConstraintRef{Package: "demo", Name: name, Weight: 1}}
	}
	return out
}

func TestApply(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "scorestream.cue"))
	require.NoError(t, err)

	in := rules("Same age", "Empty team", "Lonely person")
	out, err := cfg.Apply(in)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "demo/Empty team", out[0].ID())
	assert.Equal(t, int64(2), out[0].Constraint.Weight)
	assert.Equal(t, int64(1), in[1].Constraint.Weight, "input rules are not modified")
	assert.Same(t, in[2], out[1])
}

func TestValidate(t *testing.T) {
	cfg, err := LoadString(`constraints: {
		"demo/Ghost": {enabled: true}
		"demo/Only": {enabled: false}
	}`)
	require.NoError(t, err)

	errs := cfg.Validate(rules("Only"))
	require.Len(t, errs, 2)
	assert.Equal(t, ErrUnknownConstraint, errs[0].Code)
	assert.Equal(t, ErrNothingEnabled, errs[1].Code)

	_, err = cfg.Apply(rules("Only"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrUnknownConstraint, ve.Code)
}
