// Package config loads the optional scorestream.cue configuration file.
//
// The file is unified with a CUE schema that supplies every default, so a
// missing or empty file yields the default configuration. Example:
//
//	engine: {
//	    indexing:   true
//	    assertions: false
//	    maxRows:    100000
//	    logLevel:   "info"
//	}
//	constraints: {
//	    "demo/Same age": { enabled: false }
//	    "demo/Empty team": { weight: 2 }
//	}
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/scorestream/internal/engine"
)

// DefaultFile is the file name looked up when no path is given.
const DefaultFile = "scorestream.cue"

const schema = `
#Config: {
	engine: {
		indexing:   *true | bool
		assertions: *false | bool
		maxRows:    *1000000 | int & >=0
		logLevel:   *"info" | "debug" | "warn" | "error"
	}
	constraints: [string]: {
		enabled: *true | bool
		weight?: int & >=0
	}
}
`

// Config is the decoded configuration.
type Config struct {
	Engine      EngineConfig
	Constraints map[string]ConstraintConfig
}

// EngineConfig configures the reference engine.
type EngineConfig struct {
	Indexing   bool
	Assertions bool
	MaxRows    int
	LogLevel   string
}

// ConstraintConfig overrides one constraint. A nil Weight keeps the weight
// the constraint was built with.
type ConstraintConfig struct {
	Enabled bool
	Weight  *int64
}

// Default returns the configuration of an empty file.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Indexing: true,
			MaxRows:  engine.DefaultMaxRows,
			LogLevel: "info",
		},
		Constraints: map[string]ConstraintConfig{},
	}
}

// Load reads and decodes the file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("reading %s: %v", path, err),
			Code:    ErrLoadFailed,
		}
	}
	return decode(src, path)
}

// LoadString decodes CUE source.
func LoadString(src string) (*Config, error) {
	return decode([]byte(src), DefaultFile)
}

func decode(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err, ErrLoadFailed)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err, ErrLoadFailed)
	}
	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, ErrSchema)
	}

	cfg := Default()
	var err error
	if cfg.Engine.Indexing, err = lookup(v, "engine.indexing", cue.Value.Bool); err != nil {
		return nil, err
	}
	if cfg.Engine.Assertions, err = lookup(v, "engine.assertions", cue.Value.Bool); err != nil {
		return nil, err
	}
	maxRows, err := lookup(v, "engine.maxRows", cue.Value.Int64)
	if err != nil {
		return nil, err
	}
	cfg.Engine.MaxRows = int(maxRows)
	if cfg.Engine.LogLevel, err = lookup(v, "engine.logLevel", cue.Value.String); err != nil {
		return nil, err
	}

	iter, err := v.LookupPath(cue.ParsePath("constraints")).Fields()
	if err != nil {
		return nil, formatCUEError(err, ErrSchema)
	}
	for iter.Next() {
		entry := iter.Value()
		id := iter.Label()
		var cc ConstraintConfig
		if cc.Enabled, err = lookup(entry, "enabled", cue.Value.Bool); err != nil {
			return nil, err
		}
		if w := entry.LookupPath(cue.ParsePath("weight")); w.Exists() {
			weight, err := w.Int64()
			if err != nil {
				return nil, formatCUEError(err, ErrSchema)
			}
			cc.Weight = &weight
		}
		cfg.Constraints[id] = cc
	}
	return cfg, nil
}

func lookup[T any](v cue.Value, path string, get func(cue.Value) (T, error)) (T, error) {
	field, _ := v.LookupPath(cue.ParsePath(path)).Default()
	out, err := get(field)
	if err != nil {
		return out, formatCUEError(err, ErrSchema)
	}
	return out, nil
}

// formatCUEError converts the first CUE error into a ValidationError with
// its position.
func formatCUEError(err error, code string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Field: "cue", Message: err.Error(), Code: code}
	}
	first := errs[0]
	ve := &ValidationError{Field: "cue", Message: first.Error(), Code: code}
	if path := first.Path(); len(path) > 0 {
		ve.Field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ve.Line = positions[0].Line()
	}
	return ve
}

// Enabled reports whether the constraint with the given id is enabled.
// Constraints the file does not mention are enabled.
func (c *Config) Enabled(id string) bool {
	cc, ok := c.Constraints[id]
	return !ok || cc.Enabled
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	switch c.Engine.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineOptions translates the engine section into engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithIndexing(c.Engine.Indexing),
		engine.WithAssertions(c.Engine.Assertions),
		engine.WithMaxRows(c.Engine.MaxRows),
	}
}
