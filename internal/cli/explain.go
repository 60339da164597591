package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/planfmt"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	All bool // include constraints disabled by the configuration
}

// ExplainedRule is one rendered constraint plan.
type ExplainedRule struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Plan        string `json:"plan"`
}

// ExplainResult is the output of the explain command.
type ExplainResult struct {
	PlanHash    string          `json:"plan_hash"`
	Constraints []ExplainedRule `json:"constraints"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain [constraint-id...]",
		Short: "Render the compiled plans of the demo constraints",
		Long: `Render the plan fragments each demo constraint compiles to.

Without arguments every enabled constraint is rendered. Constraint ids are
package qualified, e.g. "demo/Same age".

Examples:
  scorestream explain
  scorestream explain "demo/Team age spread"
  scorestream explain --all --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "include constraints disabled by the configuration")

	return cmd
}

func runExplain(opts *ExplainOptions, ids []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadRules(opts.Config)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	rules := loaded.Rules
	if opts.All {
		rules = loaded.All
	}

	selected, err := selectRules(rules, ids)
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownRule, err.Error(), nil)
		return WrapExitError(ExitCommandError, "explain failed", err)
	}
	formatter.VerboseLog("Explaining %d of %d constraint(s)", len(selected), len(loaded.All))

	result, err := explainRules(selected)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "explain failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := cmd.OutOrStdout()
	for i, r := range result.Constraints {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, r.Plan)
		fmt.Fprintf(w, "fingerprint %s\n", r.Fingerprint)
	}
	fmt.Fprintf(w, "\nplan %s\n", result.PlanHash)
	return nil
}

// selectRules returns the rules named by ids in the order given, or all
// rules if ids is empty.
func selectRules(rules []*plan.Rule, ids []string) ([]*plan.Rule, error) {
	if len(ids) == 0 {
		return rules, nil
	}
	out := make([]*plan.Rule, 0, len(ids))
	for _, id := range ids {
		i := slices.IndexFunc(rules, func(r *plan.Rule) bool { return r.ID() == id })
		if i < 0 {
			return nil, fmt.Errorf("unknown constraint %q", id)
		}
		out = append(out, rules[i])
	}
	return out, nil
}

func explainRules(rules []*plan.Rule) (*ExplainResult, error) {
	result := &ExplainResult{Constraints: make([]ExplainedRule, 0, len(rules))}
	for _, rule := range rules {
		text, err := planfmt.Render(rule)
		if err != nil {
			return nil, err
		}
		fp, err := planfmt.Fingerprint(rule)
		if err != nil {
			return nil, err
		}
		result.Constraints = append(result.Constraints, ExplainedRule{
			ID:          rule.ID(),
			Fingerprint: fp,
			Plan:        text,
		})
	}
	hash, err := planfmt.PlanHash(rules)
	if err != nil {
		return nil, err
	}
	result.PlanHash = hash
	return result, nil
}

// outputLoadError reports a configuration or build failure. These are
// command errors: nothing was run.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	msg := err.Error()
	if le, ok := err.(*LoadError); ok {
		code, msg = le.Code, le.Message
	}
	_ = formatter.Error(code, msg, nil)
	return WrapExitError(ExitCommandError, "failed to load constraints", err)
}
