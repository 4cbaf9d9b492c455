package core

import "github.com/shopspring/decimal"

// CategoryRollup aggregates combined rows by category.
type CategoryRollup struct {
	Category string
	Figures
}

// MonthRollup aggregates combined rows by month.
type MonthRollup struct {
	Month Date
	Figures
}

// Sum holds the three additive totals of a table.
type Sum struct {
	Budget   decimal.Decimal
	Actual   decimal.Decimal
	Variance decimal.Decimal
}

// Add returns s plus f's additive figures.
func (s Sum) Add(f Figures) Sum {
	return Sum{
		Budget:   s.Budget.Add(f.Budget),
		Actual:   s.Actual.Add(f.Actual),
		Variance: s.Variance.Add(f.Variance),
	}
}

// Equal compares exactly, digit for digit.
func (s Sum) Equal(o Sum) bool {
	return s.Budget.Equal(o.Budget) && s.Actual.Equal(o.Actual) && s.Variance.Equal(o.Variance)
}

// TotalsSnapshot pairs the combined-table totals with the totals of one derived table.
type TotalsSnapshot struct {
	Combined Sum
	Rollup   Sum
}

// Balanced reports whether no mass was lost or duplicated.
func (t TotalsSnapshot) Balanced() bool {
	return t.Combined.Equal(t.Rollup)
}
