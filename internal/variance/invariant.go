package variance

import (
	"errors"
	"fmt"
	"strings"

	"budgetreport/internal/core"
)

// Rollup names used in mismatch reports.
const (
	RollupCategory = "by_category"
	RollupMonth    = "by_month"
	RollupInputs   = "inputs"
)

var ErrInvariantMismatch = errors.New("invariant mismatch")

// InvariantMismatch names the derived tables whose totals diverge from the
// combined table. It is informational: the report can still be produced.
type InvariantMismatch struct {
	Rollups   []string
	Snapshots map[string]core.TotalsSnapshot
}

func (e *InvariantMismatch) Error() string {
	parts := make([]string, 0, len(e.Rollups))
	for _, name := range e.Rollups {
		s := e.Snapshots[name]
		parts = append(parts, fmt.Sprintf("%s (combined budget=%s actual=%s variance=%s; rollup budget=%s actual=%s variance=%s)",
			name,
			s.Combined.Budget, s.Combined.Actual, s.Combined.Variance,
			s.Rollup.Budget, s.Rollup.Actual, s.Rollup.Variance))
	}
	return "totals not conserved: " + strings.Join(parts, "; ")
}

func (e *InvariantMismatch) Unwrap() error { return ErrInvariantMismatch }

// InvariantReport holds the totals of the combined table against each rollup.
type InvariantReport struct {
	ByCategory core.TotalsSnapshot
	ByMonth    core.TotalsSnapshot
	// Inputs compares the raw datasets with the combined table. Zero value
	// when not checked.
	Inputs        core.TotalsSnapshot
	inputsChecked bool
}

// Passed reports whether every checked snapshot balances exactly.
func (r InvariantReport) Passed() bool {
	return r.Err() == nil
}

// Err returns an *InvariantMismatch listing unbalanced snapshots, or nil.
func (r InvariantReport) Err() error {
	snaps := map[string]core.TotalsSnapshot{
		RollupCategory: r.ByCategory,
		RollupMonth:    r.ByMonth,
	}
	order := []string{RollupCategory, RollupMonth}
	if r.inputsChecked {
		snaps[RollupInputs] = r.Inputs
		order = append(order, RollupInputs)
	}
	var failed []string
	for _, name := range order {
		if !snaps[name].Balanced() {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &InvariantMismatch{Rollups: failed, Snapshots: snaps}
}

// WithInputs returns a copy of r that also checks the raw input totals.
func (r InvariantReport) WithInputs(inputs core.TotalsSnapshot) InvariantReport {
	r.Inputs = inputs
	r.inputsChecked = true
	return r
}

// Totals sums the combined table.
func Totals(rows []core.CombinedRow) core.Sum {
	var s core.Sum
	for _, r := range rows {
		s = s.Add(r.Figures)
	}
	return s
}

// CheckInvariants compares the combined totals with both rollups.
func CheckInvariants(rows []core.CombinedRow, cats []core.CategoryRollup, months []core.MonthRollup) InvariantReport {
	combined := Totals(rows)

	var byCat core.Sum
	for _, c := range cats {
		byCat = byCat.Add(c.Figures)
	}
	var byMonth core.Sum
	for _, m := range months {
		byMonth = byMonth.Add(m.Figures)
	}
	return InvariantReport{
		ByCategory: core.TotalsSnapshot{Combined: combined, Rollup: byCat},
		ByMonth:    core.TotalsSnapshot{Combined: combined, Rollup: byMonth},
	}
}

// CheckInputs compares the raw budget and actuals with the combined table.
// Rollup holds the input side: budget and actual sums, variance their difference.
func CheckInputs(budget, actuals []core.LineItem, rows []core.CombinedRow) core.TotalsSnapshot {
	var in core.Sum
	for _, it := range budget {
		in.Budget = in.Budget.Add(it.Amount)
	}
	for _, it := range actuals {
		in.Actual = in.Actual.Add(it.Amount)
	}
	in.Variance = in.Actual.Sub(in.Budget)
	return core.TotalsSnapshot{Combined: Totals(rows), Rollup: in}
}
