package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"budgetreport/internal/backend"
	"budgetreport/internal/cli"
	"budgetreport/internal/core"
	"budgetreport/internal/log"
	"budgetreport/internal/services"
	"budgetreport/internal/variance"
)

type generateOptions struct {
	budget    string
	actuals   string
	out       string
	minBudget string
	top       int
	currency  string
	strict    bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the budget vs actuals workbook",
		Long: `Build the budget vs actuals workbook.

Flags override the matching environment variables (BUDGET_PATH,
ACTUALS_PATH, REPORT_OUTPUT_PATH, MIN_BUDGET, TOP_N, CURRENCY_FORMAT).

Exit codes: 0 success, 1 input, output or configuration failure,
2 totals not conserved (only with --strict).

Example:
  budget-report generate --budget budget.csv --actuals actuals.csv --out report.xlsx --min-budget 100 --top 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.budget, "budget", "", "budget CSV path")
	f.StringVar(&opts.actuals, "actuals", "", "actuals CSV path")
	f.StringVarP(&opts.out, "out", "o", "", "output workbook path")
	f.StringVar(&opts.minBudget, "min-budget", "", "minimum budget for a line to rank as a top driver (default 1.0)")
	f.IntVar(&opts.top, "top", 0, "number of drivers per table (default 5)")
	f.StringVar(&opts.currency, "currency-format", "", "xlsx number format for amounts")
	f.BoolVar(&opts.strict, "strict", false, "exit with code 2 when totals are not conserved")
	return cmd
}

// applyFlags overrides cfg with the flags the user set.
func (o *generateOptions) applyFlags(cmd *cobra.Command, root *rootOptions) error {
	cfg := root.cfg
	flags := cmd.Flags()
	if flags.Changed("budget") {
		cfg.BudgetPath = o.budget
	}
	if flags.Changed("actuals") {
		cfg.ActualsPath = o.actuals
	}
	if flags.Changed("out") {
		cfg.OutputPath = o.out
	}
	if flags.Changed("min-budget") {
		d, err := decimal.NewFromString(o.minBudget)
		if err != nil {
			return fmt.Errorf("invalid --min-budget %q: %w", o.minBudget, err)
		}
		cfg.MinBudget = d
	}
	if flags.Changed("top") {
		cfg.TopN = o.top
	}
	if flags.Changed("currency-format") {
		cfg.CurrencyFormat = o.currency
	}

	var missing []string
	if cfg.BudgetPath == "" {
		missing = append(missing, "--budget")
	}
	if cfg.ActualsPath == "" {
		missing = append(missing, "--actuals")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required input: %v", missing)
	}
	return cfg.Validate()
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	if err := opts.applyFlags(cmd, root); err != nil {
		return err
	}
	cfg := root.cfg
	logger := root.logger

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()
	ctx = log.NewContext(ctx, logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	side, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := side.Close(); err != nil {
			logger.Warn("Failed to close side channels", log.FieldError, err)
		}
	}()

	svc := services.NewReportService(side.Options()...)
	res, err := svc.Generate(ctx, services.Request{
		BudgetPath:     cfg.BudgetPath,
		ActualsPath:    cfg.ActualsPath,
		OutputPath:     cfg.OutputPath,
		MinBudget:      cfg.MinBudget,
		TopN:           cfg.TopN,
		CurrencyFormat: cfg.CurrencyFormat,
	})
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), res)

	if opts.strict {
		if err := res.InvariantErr(); err != nil {
			return &ExitError{Code: ExitInvariantMismatch, Err: err}
		}
	}
	return nil
}

func printSummary(w io.Writer, res *services.Result) {
	fmt.Fprintf(w, "Report written: %s\n", res.OutputPath)
	fmt.Fprintf(w, "Rows:       budget=%d actual=%d joined=%d\n", res.BudgetRows, res.ActualRows, len(res.Views.Detail))
	fmt.Fprintf(w, "Totals:     budget=%s actual=%s variance=%s\n",
		core.FormatAmount(res.Totals.Budget), core.FormatAmount(res.Totals.Actual), core.FormatAmount(res.Totals.Variance))

	var mm *variance.InvariantMismatch
	if err := res.InvariantErr(); errors.As(err, &mm) {
		fmt.Fprintf(w, "Invariants: FAIL %v\n", mm.Rollups)
	} else {
		fmt.Fprintln(w, "Invariants: PASS")
	}

	printMovers(w, "Top over budget", res.Views.Top.Over)
	printMovers(w, "Top under budget", res.Views.Top.Under)

	if res.RunID != 0 {
		fmt.Fprintf(w, "Archived as run %d\n", res.RunID)
	}
	for _, err := range res.SideErrors {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
}

func printMovers(w io.Writer, title string, rows []core.CombinedRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s / %s  %s (%s)\n",
			r.Month, r.Category, r.Subcategory, core.FormatAmount(r.Variance), core.FormatRatio(r.VariancePct))
	}
}
