// Package report turns the variance views into tables and renders them as
// an xlsx workbook.
package report

import (
	"budgetreport/internal/core"
	"budgetreport/internal/variance"
)

// Sheet names, in workbook order.
const (
	SheetDetail     = "Detail"
	SheetByCategory = "By Category"
	SheetByMonth    = "By Month"
	SheetTopDrivers = "Top Drivers"
)

// Section titles on the Top Drivers sheet.
const (
	TitleOverBudget  = "Top Over Budget"
	TitleUnderBudget = "Top Under Budget"
)

// CellKind tells a renderer how to format a cell.
type CellKind int

const (
	KindText CellKind = iota
	KindDate
	KindMoney
	KindVariance // money, colored by sign
	KindPercent
)

// Cell is one typed value. Value is a string, core.Date, decimal.Decimal or
// core.Ratio depending on Kind.
type Cell struct {
	Kind  CellKind
	Value any
}

// Section is a header row followed by data rows, with an optional title above.
type Section struct {
	Title  string
	Header []string
	Rows   [][]Cell
}

// Table is one sheet.
type Table struct {
	Sheet    string
	Sections []Section
}

// Views gathers everything the report shows.
type Views struct {
	Detail     []core.CombinedRow
	ByCategory []core.CategoryRollup
	ByMonth    []core.MonthRollup // chronological
	Top        variance.Movers
}

var (
	detailHeader = []string{"month", "category", "subcategory", "amount_budget", "amount_actual", "variance", "variance_pct"}
	rollupHeader = []string{"budget", "actual", "variance", "variance_pct"}
)

// Tables lays the views out as the four report sheets.
func (v Views) Tables() []Table {
	return []Table{
		{Sheet: SheetDetail, Sections: []Section{{Header: detailHeader, Rows: combinedRows(v.Detail)}}},
		{Sheet: SheetByCategory, Sections: []Section{categorySection(v.ByCategory)}},
		{Sheet: SheetByMonth, Sections: []Section{monthSection(v.ByMonth)}},
		{Sheet: SheetTopDrivers, Sections: []Section{
			{Title: TitleOverBudget, Header: detailHeader, Rows: combinedRows(v.Top.Over)},
			{Title: TitleUnderBudget, Header: detailHeader, Rows: combinedRows(v.Top.Under)},
		}},
	}
}

func combinedRows(rows []core.CombinedRow) [][]Cell {
	out := make([][]Cell, 0, len(rows))
	for _, r := range rows {
		out = append(out, append([]Cell{
			{Kind: KindDate, Value: r.Month},
			{Kind: KindText, Value: r.Category},
			{Kind: KindText, Value: r.Subcategory},
		}, figureCells(r.Figures)...))
	}
	return out
}

func categorySection(rows []core.CategoryRollup) Section {
	s := Section{Header: append([]string{"category"}, rollupHeader...)}
	for _, r := range rows {
		s.Rows = append(s.Rows, append([]Cell{{Kind: KindText, Value: r.Category}}, figureCells(r.Figures)...))
	}
	return s
}

func monthSection(rows []core.MonthRollup) Section {
	s := Section{Header: append([]string{"month"}, rollupHeader...)}
	for _, r := range rows {
		s.Rows = append(s.Rows, append([]Cell{{Kind: KindDate, Value: r.Month}}, figureCells(r.Figures)...))
	}
	return s
}

func figureCells(f core.Figures) []Cell {
	return []Cell{
		{Kind: KindMoney, Value: f.Budget},
		{Kind: KindMoney, Value: f.Actual},
		{Kind: KindVariance, Value: f.Variance},
		{Kind: KindPercent, Value: f.VariancePct},
	}
}
