package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scorestream/internal/config"
	"github.com/roach88/scorestream/internal/demo"
	"github.com/roach88/scorestream/internal/engine"
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/stream"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                     `json:"valid"`
	Config      string                   `json:"config,omitempty"`
	Constraints int                      `json:"constraints"`
	Enabled     int                      `json:"enabled"`
	Errors      []config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and the demo plans",
		Long: `Validate the configuration file against the demo constraints and check
that every enabled constraint compiles to a valid plan.

The configuration is read from --config, or from scorestream.cue in the
working directory if present.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, used, err := loadConfig(opts.Config)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if used != "" {
		formatter.VerboseLog("Validating %s", used)
	}

	all, err := stream.NewFactory().Build(demo.Provider)
	if err != nil {
		return outputLoadError(formatter, toLoadError(err, ErrCodeBuildFailed))
	}

	result := ValidationResult{Config: used, Constraints: len(all)}
	result.Errors = cfg.Validate(all)
	if len(result.Errors) == 0 {
		rules, err := cfg.Apply(all)
		if err != nil {
			return outputLoadError(formatter, toLoadError(err, ErrCodeGeneric))
		}
		result.Enabled = len(rules)
		result.Errors = validatePlans(rules, cfg, formatter)
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

// validatePlans checks every rule on its own, then compiles them together
// with the configured engine options.
func validatePlans(rules []*plan.Rule, cfg *config.Config, formatter *OutputFormatter) []config.ValidationError {
	var errs []config.ValidationError
	for _, rule := range rules {
		formatter.VerboseLog("Validating constraint: %s", rule.ID())
		res := plan.Validate(rule)
		for _, problem := range res.Problems {
			errs = append(errs, config.ValidationError{
				Field:   rule.ID(),
				Message: problem,
				Code:    string(plan.CodeInvalidPlan),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if _, err := engine.Compile(rules, cfg.EngineOptions()...); err != nil {
		ve := config.ValidationError{Field: "plan", Message: err.Error(), Code: ErrCodeGeneric}
		if ce, ok := plan.AsConfigError(err); ok {
			ve = config.ValidationError{Field: ce.Constraint, Message: ce.Message, Code: string(ce.Code)}
		}
		errs = append(errs, ve)
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s Valid: %d of %d constraint(s) enabled\n", Mark(true), result.Enabled, result.Constraints)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	if formatter.Format == "json" {
		if err := formatter.Failure(result, result.Errors[0].Code, result.Errors[0].Message); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", Mark(false))
	for _, err := range result.Errors {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	return failed
}

// ValidateConfigFile validates a configuration file against the demo
// constraints. This is a helper function for external callers.
func ValidateConfigFile(path string) ([]config.ValidationError, error) {
	cfg, err := config.Load(path)
	if err != nil {
		var ve *config.ValidationError
		if errors.As(err, &ve) {
			return []config.ValidationError{*ve}, nil
		}
		return nil, err
	}
	all, err := stream.NewFactory().Build(demo.Provider)
	if err != nil {
		return nil, err
	}
	return cfg.Validate(all), nil
}
