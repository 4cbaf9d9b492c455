// Package variance compares budget and actuals: it groups line items,
// joins the two datasets, derives rollups, checks that totals are conserved
// and picks the largest drivers.
//
// Every function here is pure. Inputs are never modified and results are
// freshly allocated slices.
package variance

import (
	"sort"

	"budgetreport/internal/core"

	"github.com/shopspring/decimal"
)

// Aggregate sums line items sharing the same (month, category, subcategory).
// Output is ordered by key.
func Aggregate(items []core.LineItem) []core.AggregatedRow {
	sums := make(map[core.Key]decimal.Decimal, len(items))
	for _, it := range items {
		k := it.Key()
		sums[k] = sums[k].Add(it.Amount)
	}
	out := make([]core.AggregatedRow, 0, len(sums))
	for k, amt := range sums {
		out = append(out, core.AggregatedRow{Key: k, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// Combine full-outer-joins budget and actuals on their key. A key present on
// one side only gets zero for the other side.
func Combine(budget, actuals []core.AggregatedRow) []core.CombinedRow {
	type pair struct {
		budget, actual decimal.Decimal
	}
	joined := make(map[core.Key]pair, len(budget)+len(actuals))
	for _, r := range budget {
		p := joined[r.Key]
		p.budget = p.budget.Add(r.Amount)
		joined[r.Key] = p
	}
	for _, r := range actuals {
		p := joined[r.Key]
		p.actual = p.actual.Add(r.Amount)
		joined[r.Key] = p
	}

	out := make([]core.CombinedRow, 0, len(joined))
	for k, p := range joined {
		out = append(out, core.CombinedRow{Key: k, Figures: core.NewFigures(p.budget, p.actual)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// Build aggregates both datasets and joins them.
func Build(budget, actuals []core.LineItem) []core.CombinedRow {
	return Combine(Aggregate(budget), Aggregate(actuals))
}
