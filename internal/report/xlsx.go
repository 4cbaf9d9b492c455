package report

import (
	"fmt"
	"io"

	"budgetreport/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultCurrencyFormat = `$#,##0.00`
	percentFormat         = `0.0%`
	dateFormat            = `yyyy-mm-dd`

	colorOver   = "#C00000" // red: over budget
	colorUnder  = "#00B050" // green: under budget
	colorHeader = "#D9E1F2"

	columnWidth = 16
)

// Options tune the rendering.
type Options struct {
	CurrencyFormat string
}

func (o Options) currencyFormat() string {
	if o.CurrencyFormat == "" {
		return DefaultCurrencyFormat
	}
	return o.CurrencyFormat
}

type styles struct {
	title, header, text, date, money, over, under, percent int
}

// Render builds an in-memory workbook. The caller must Close it.
func Render(tables []Table, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet %q: %w", t.Sheet, err)
			}
		} else if _, err := f.NewSheet(t.Sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", t.Sheet, err)
		}
		if err := renderTable(f, t, st); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", t.Sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write renders tables and streams the workbook to w.
func Write(w io.Writer, tables []Table, opts Options) error {
	f, err := Render(tables, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func newStyles(f *excelize.File, opts Options) (styles, error) {
	var st styles
	currency := opts.currencyFormat()
	right := &excelize.Alignment{Horizontal: "right"}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&st.header, &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{colorHeader}, Pattern: 1},
			Border: []excelize.Border{
				{Type: "bottom", Color: "#000000", Style: 1},
			},
		}},
		{&st.text, &excelize.Style{}},
		{&st.date, &excelize.Style{CustomNumFmt: strPtr(dateFormat)}},
		{&st.money, &excelize.Style{CustomNumFmt: &currency, Alignment: right}},
		{&st.over, &excelize.Style{CustomNumFmt: &currency, Alignment: right, Font: &excelize.Font{Color: colorOver}}},
		{&st.under, &excelize.Style{CustomNumFmt: &currency, Alignment: right, Font: &excelize.Font{Color: colorUnder}}},
		{&st.percent, &excelize.Style{CustomNumFmt: strPtr(percentFormat), Alignment: right}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		*def.dst = id
	}
	return st, nil
}

func renderTable(f *excelize.File, t Table, st styles) error {
	row := 1
	for i, sec := range t.Sections {
		if i > 0 {
			row++ // blank separator
		}
		if sec.Title != "" {
			if err := setCell(f, t.Sheet, 1, row, sec.Title, st.title); err != nil {
				return err
			}
			row++
		}
		for c, h := range sec.Header {
			if err := setCell(f, t.Sheet, c+1, row, h, st.header); err != nil {
				return err
			}
		}
		headerRow := row
		row++
		for _, cells := range sec.Rows {
			for c, cell := range cells {
				value, style := cellValue(cell, st)
				if err := setCell(f, t.Sheet, c+1, row, value, style); err != nil {
					return err
				}
			}
			row++
		}
		if len(t.Sections) == 1 && sec.Title == "" {
			if err := f.SetPanes(t.Sheet, &excelize.Panes{
				Freeze:      true,
				YSplit:      headerRow,
				TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
				ActivePane:  "bottomLeft",
			}); err != nil {
				return fmt.Errorf("freeze header: %w", err)
			}
		}
	}

	width := 0
	for _, sec := range t.Sections {
		width = max(width, len(sec.Header))
	}
	if width > 0 {
		last, err := excelize.ColumnNumberToName(width)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(t.Sheet, "A", last, columnWidth); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	return nil
}

// cellValue maps a typed cell to a spreadsheet value and style. Undefined
// percentages become empty cells.
func cellValue(c Cell, st styles) (any, int) {
	switch v := c.Value.(type) {
	case core.Date:
		return v.Time, st.date
	case core.Ratio:
		if !v.Valid {
			return nil, st.percent
		}
		return v.Value.InexactFloat64(), st.percent
	case decimal.Decimal:
		style := st.money
		if c.Kind == KindVariance {
			switch v.Sign() {
			case 1:
				style = st.over
			case -1:
				style = st.under
			}
		}
		return v.InexactFloat64(), style
	default:
		return v, st.text
	}
}

func setCell(f *excelize.File, sheet string, col, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if value != nil {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func strPtr(s string) *string { return &s }
