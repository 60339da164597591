package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/scorestream/internal/config"
	"github.com/roach88/scorestream/internal/demo"
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/stream"
)

// LoadResult contains the configuration and the rules it enables.
type LoadResult struct {
	Config     *config.Config
	ConfigPath string // empty when defaults are used
	Rules      []*plan.Rule
	All        []*plan.Rule // every demo rule, enabled or not
}

// LoadError represents an error that occurred while loading the
// configuration or building the constraints.
type LoadError struct {
	Code    string
	Message string
	Line    int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRules loads the configuration named by path and applies it to the
// demo constraints. An empty path falls back to scorestream.cue in the
// working directory if it exists, and to the defaults otherwise.
func LoadRules(path string) (*LoadResult, error) {
	cfg, used, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	all, err := stream.NewFactory().Build(demo.Provider)
	if err != nil {
		return nil, toLoadError(err, ErrCodeBuildFailed)
	}
	rules, err := cfg.Apply(all)
	if err != nil {
		return nil, toLoadError(err, ErrCodeGeneric)
	}
	return &LoadResult{Config: cfg, ConfigPath: used, Rules: rules, All: all}, nil
}

func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err != nil {
			return config.Default(), "", nil
		}
		path = config.DefaultFile
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", toLoadError(err, ErrCodeGeneric)
	}
	return cfg, path, nil
}

// toLoadError keeps the code of configuration and plan errors.
func toLoadError(err error, fallback string) *LoadError {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return &LoadError{Code: ve.Code, Message: ve.Message, Line: ve.Line}
	}
	if ce, ok := plan.AsConfigError(err); ok {
		return &LoadError{Code: string(ce.Code), Message: ce.Error()}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}
