// Package cmd provides CLI commands for budget-report.
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"budgetreport/internal/cli"
	"budgetreport/internal/config"
	"budgetreport/internal/log"
)

// Exit codes.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitInvariantMismatch = 2
)

// ExitError carries a process exit code through cobra.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

type rootOptions struct {
	envFile string
	debug   bool

	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the command tree. Logs go to stderr, the run summary to stdout.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "budget-report",
		Short: "Compare budget and actual spending and write an xlsx report",
		Long: `budget-report reads a budget CSV and an actuals CSV, joins them on
(month, category, subcategory) and writes a four sheet workbook:

- Detail: every joined line with variance and variance %
- By Category and By Month rollups
- Top Drivers: largest over and under budget lines

Every run checks that the rollups conserve the grand totals.

Example:
  budget-report generate --budget budget.csv --actuals actuals.csv --out report.xlsx
  budget-report history --limit 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.LoadEnvFile(opts.envFile); err != nil {
				return err
			}
			cfg := config.Load()
			logger, err := cli.SetupLogger(opts.stderr, cfg.LogLevel, opts.debug)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file (default is .env when present)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	return root
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
