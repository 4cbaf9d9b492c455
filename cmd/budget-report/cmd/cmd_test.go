package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budgetreport/internal/core"
	"budgetreport/internal/services"
	"budgetreport/internal/variance"

	"github.com/shopspring/decimal"
)

const budgetCSV = "month,category,subcategory,amount\n" +
	"2024-01-01,Food,Snacks,100\n" +
	"2024-01-01,Rent,Flat,1000\n"

const actualsCSV = "month,category,subcategory,amount\n" +
	"2024-01-01,Food,Snacks,120\n" +
	"2024-01-01,Rent,Flat,900\n" +
	"2024-02-01,Fun,Cinema,30\n"

// isolateEnv clears every variable the CLI reads so the host environment
// cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BUDGET_PATH", "ACTUALS_PATH", "REPORT_OUTPUT_PATH", "CURRENCY_FORMAT",
		"MIN_BUDGET", "TOP_N", "LOG_LEVEL", "ARCHIVE_DB_PATH",
		"AMQP_URL", "MIRROR_BACKEND", "GOOGLE_SPREADSHEET_ID",
	} {
		t.Setenv(k, "")
	}
	// Keep a stray .env in the working directory out of the run.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = Execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestGenerateAndHistory(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	budget := writeFile(t, dir, "budget.csv", budgetCSV)
	actuals := writeFile(t, dir, "actuals.csv", actualsCSV)
	out := filepath.Join(dir, "report.xlsx")
	t.Setenv("ARCHIVE_DB_PATH", filepath.Join(dir, "runs.db"))

	code, stdout, stderr := run("generate", "--budget", budget, "--actuals", actuals, "--out", out, "--strict")
	if code != ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("workbook missing: %v", err)
	}
	for _, want := range []string{
		"Report written: " + out,
		"budget=1100.00 actual=1050.00 variance=-50.00",
		"Invariants: PASS",
		"Top over budget:",
		"2024-01-01  Food / Snacks  20.00 (20.0%)",
		"Archived as run 1",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "level=") {
		t.Errorf("logs must not go to stdout:\n%s", stdout)
	}

	code, stdout, stderr = run("history")
	if code != ExitOK {
		t.Fatalf("history exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "report.xlsx") || !strings.Contains(stdout, "PASS") {
		t.Errorf("history output:\n%s", stdout)
	}
}

func TestGenerateFlagsOverrideEnv(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	t.Setenv("BUDGET_PATH", writeFile(t, dir, "budget.csv", budgetCSV))
	t.Setenv("ACTUALS_PATH", writeFile(t, dir, "actuals.csv", actualsCSV))
	t.Setenv("REPORT_OUTPUT_PATH", filepath.Join(dir, "env.xlsx"))

	flagOut := filepath.Join(dir, "flag.xlsx")
	code, stdout, stderr := run("generate", "-o", flagOut, "--min-budget", "500", "--top", "1")
	if code != ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if _, err := os.Stat(flagOut); err != nil {
		t.Fatalf("flag output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "env.xlsx")); !os.IsNotExist(err) {
		t.Fatalf("env output should not be written")
	}
	// Food's budget (100) is below the 500 threshold.
	if strings.Contains(stdout, "Top over budget") {
		t.Errorf("Food should be filtered out:\n%s", stdout)
	}
}

func TestGenerateFailures(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	budget := writeFile(t, dir, "budget.csv", budgetCSV)
	bad := writeFile(t, dir, "bad.csv", "month,category,subcategory,amount\n2024-13-01,Food,Snacks,1\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing inputs", []string{"generate"}, "missing required input"},
		{"format error", []string{"generate", "--budget", budget, "--actuals", bad, "--out", filepath.Join(dir, "r.xlsx")}, "bad.csv"},
		{"write error", []string{"generate", "--budget", budget, "--actuals", budget, "--out", filepath.Join(dir, "no", "r.xlsx")}, "write report"},
		{"bad min budget", []string{"generate", "--budget", budget, "--actuals", budget, "--min-budget", "lots"}, "invalid --min-budget"},
		{"bad top", []string{"generate", "--budget", budget, "--actuals", budget, "--top", "0"}, "invalid top n"},
		{"history without archive", []string{"history"}, "ARCHIVE_DB_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(tt.args...)
			if code != ExitFailure {
				t.Fatalf("exit code = %d, want %d", code, ExitFailure)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, stderr)
			}
		})
	}
}

func TestPrintSummaryReportsMismatch(t *testing.T) {
	var buf bytes.Buffer
	res := mismatchResult()
	printSummary(&buf, res)
	if !strings.Contains(buf.String(), "Invariants: FAIL [by_month]") {
		t.Fatalf("summary:\n%s", buf.String())
	}
}

func mismatchResult() *services.Result {
	jan := core.NewDate(2024, 1, 1)
	feb := core.NewDate(2024, 2, 1)
	rows := []core.CombinedRow{
		{Key: core.Key{Month: jan, Category: "Food", Subcategory: "A"}, Figures: core.NewFigures(decimal.NewFromInt(100), decimal.NewFromInt(120))},
		{Key: core.Key{Month: feb, Category: "Rent", Subcategory: "B"}, Figures: core.NewFigures(decimal.NewFromInt(50), decimal.NewFromInt(40))},
	}
	months := variance.ByMonth(rows)[:1]
	return &services.Result{
		OutputPath: "r.xlsx",
		Totals:     variance.Totals(rows),
		Invariants: variance.CheckInvariants(rows, variance.ByCategory(rows), months),
	}
}

func TestExitErrorCarriesCode(t *testing.T) {
	res := mismatchResult()
	err := &ExitError{Code: ExitInvariantMismatch, Err: res.InvariantErr()}
	if !errors.Is(err, variance.ErrInvariantMismatch) {
		t.Fatalf("ExitError must unwrap to the mismatch: %v", err)
	}
	if !strings.Contains(err.Error(), "by_month") {
		t.Fatalf("message = %q", err.Error())
	}
}
