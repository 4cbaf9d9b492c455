package sheets

import (
	"context"

	"budgetreport/internal/core"
	"budgetreport/internal/report"

	"github.com/shopspring/decimal"
)

// Ports for outbound adapters.
type (
	// ReportMirror copies the report tables to an external spreadsheet,
	// replacing whatever a previous run left there.
	ReportMirror interface {
		Mirror(ctx context.Context, tables []report.Table) error
	}
)

// Values flattens a table into the cell grid a spreadsheet receives: a
// blank row between sections, the title above its header, then the data.
// Dates are ISO strings, amounts fixed to two decimals and percentages to
// one decimal with a trailing % sign. Undefined percentages are empty.
func Values(t report.Table) [][]any {
	var out [][]any
	for i, sec := range t.Sections {
		if i > 0 {
			out = append(out, []any{})
		}
		if sec.Title != "" {
			out = append(out, []any{sec.Title})
		}
		header := make([]any, len(sec.Header))
		for c, h := range sec.Header {
			header[c] = h
		}
		out = append(out, header)
		for _, cells := range sec.Rows {
			row := make([]any, len(cells))
			for c, cell := range cells {
				row[c] = cellString(cell)
			}
			out = append(out, row)
		}
	}
	return out
}

var hundred = decimal.NewFromInt(100)

func cellString(c report.Cell) string {
	switch v := c.Value.(type) {
	case string:
		return v
	case core.Date:
		return v.String()
	case decimal.Decimal:
		return v.StringFixed(2)
	case core.Ratio:
		if !v.Valid {
			return ""
		}
		return v.Value.Mul(hundred).StringFixed(1) + "%"
	default:
		return ""
	}
}
