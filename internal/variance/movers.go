package variance

import (
	"sort"

	"budgetreport/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the number of drivers kept on each side.
const DefaultTopN = 5

// DefaultMinBudget is the smallest budget a row needs to be ranked.
var DefaultMinBudget = decimal.NewFromInt(1)

// Movers are the rows furthest over and under budget, by variance percentage.
type Movers struct {
	Over  []core.CombinedRow
	Under []core.CombinedRow
}

// TopMovers selects up to n rows on each side among rows whose budget is at
// least minBudget. Rows without a defined variance percentage (zero budget)
// are never ranked. Ties keep input order.
func TopMovers(rows []core.CombinedRow, minBudget decimal.Decimal, n int) Movers {
	if n <= 0 {
		return Movers{}
	}
	var over, under []core.CombinedRow
	for _, r := range rows {
		if r.Budget.LessThan(minBudget) || !r.VariancePct.Valid {
			continue
		}
		switch r.Variance.Sign() {
		case 1:
			over = append(over, r)
		case -1:
			under = append(under, r)
		}
	}
	sort.SliceStable(over, func(i, j int) bool {
		return over[i].VariancePct.Value.GreaterThan(over[j].VariancePct.Value)
	})
	sort.SliceStable(under, func(i, j int) bool {
		return under[i].VariancePct.Value.LessThan(under[j].VariancePct.Value)
	})
	return Movers{Over: head(over, n), Under: head(under, n)}
}

func head(rows []core.CombinedRow, n int) []core.CombinedRow {
	if len(rows) > n {
		return rows[:n:n]
	}
	return rows
}
