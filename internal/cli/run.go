package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/scorestream/internal/harness"
)

// RunResult is the output of the run command.
type RunResult struct {
	Scenario string `json:"scenario"`
	*harness.Result
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Score a scenario with the reference engine",
		Long: `Execute a scenario against the demo constraints and print the score
after every step and the final per constraint totals.

A scenario without its own config block uses the file given by --config.

Exit codes:
  0 - Every expectation held
  1 - An expectation or assertion failed
  2 - Command error (missing file, invalid scenario, etc.)

Examples:
  scorestream run ./scenarios/team_spread.yaml
  scorestream run ./scenarios/team_spread.yaml --config ./scorestream.cue --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScenarioFile(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenario file not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario file not found: %s", path))
	}
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	cfg, used, err := loadConfig(opts.Config)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if scenario.Config == "" && used != "" {
		src, err := os.ReadFile(used)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
		scenario.Config = string(src)
		formatter.VerboseLog("Using configuration %s", used)
	}

	// Interrupts cancel the run between steps.
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(opts, cfg.Level(), formatter.GetErrWriter())
	result, err := harness.RunContext(ctx, scenario, harness.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario could not be executed", err)
	}

	if opts.Format == "json" {
		out := RunResult{Scenario: scenario.Name, Result: result}
		if !result.Pass {
			if err := formatter.Failure(out, "E_SCENARIO_FAILED", fmt.Sprintf("%d expectation(s) failed", len(result.Errors))); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
		}
		return formatter.Success(out)
	}

	printRunText(formatter, scenario, result)
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func printRunText(f *OutputFormatter, scenario *harness.Scenario, result *harness.Result) {
	w := f.Writer
	fmt.Fprintf(w, "Scenario: %s\n%s\n\n", scenario.Name, scenario.Description)

	steps := make([][]string, len(result.Trace))
	for i, event := range result.Trace {
		steps[i] = []string{
			strconv.FormatInt(event.Seq, 10),
			event.Action,
			event.Fact,
			strconv.FormatInt(event.Total, 10),
		}
	}
	f.Table([]string{"Step", "Action", "Fact", "Total"}, steps)
	fmt.Fprintln(w)

	totals := make([][]string, len(result.Totals))
	for i, total := range result.Totals {
		totals[i] = []string{
			total.Constraint,
			strconv.Itoa(total.Count),
			strconv.FormatInt(total.Impact, 10),
		}
	}
	f.Table([]string{"Constraint", "Matches", "Score"}, totals)
	fmt.Fprintln(w)

	if result.Pass {
		fmt.Fprintf(w, "%s %s passed\n", Mark(true), scenario.Name)
		return
	}
	fmt.Fprintf(w, "%s %s failed\n", Mark(false), scenario.Name)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
