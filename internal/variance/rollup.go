package variance

import (
	"sort"

	"budgetreport/internal/core"
)

// ByCategory rolls combined rows up by category, largest variance first.
func ByCategory(rows []core.CombinedRow) []core.CategoryRollup {
	sums := map[string]core.Sum{}
	for _, r := range rows {
		sums[r.Category] = sums[r.Category].Add(r.Figures)
	}
	out := make([]core.CategoryRollup, 0, len(sums))
	for cat, s := range sums {
		out = append(out, core.CategoryRollup{
			Category: cat,
			Figures:  core.SumFigures(s.Budget, s.Actual, s.Variance),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Variance.Cmp(out[j].Variance); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ByMonth rolls combined rows up by month in chronological order.
func ByMonth(rows []core.CombinedRow) []core.MonthRollup {
	sums := map[core.Date]core.Sum{}
	for _, r := range rows {
		sums[r.Month] = sums[r.Month].Add(r.Figures)
	}
	out := make([]core.MonthRollup, 0, len(sums))
	for m, s := range sums {
		out = append(out, core.MonthRollup{
			Month:   m,
			Figures: core.SumFigures(s.Budget, s.Actual, s.Variance),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Compare(out[j].Month) < 0 })
	return out
}

// MonthsByVariance returns a copy of months in diagnostic order: largest
// variance first, ties chronological.
func MonthsByVariance(months []core.MonthRollup) []core.MonthRollup {
	out := append([]core.MonthRollup(nil), months...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Variance.Cmp(out[j].Variance); c != 0 {
			return c > 0
		}
		return out[i].Month.Compare(out[j].Month) < 0
	})
	return out
}
