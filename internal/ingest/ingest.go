// Package ingest loads budget and actuals line items from delimited text.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"budgetreport/internal/core"
)

// Required column names, matched case-insensitively.
const (
	ColMonth       = "month"
	ColCategory    = "category"
	ColSubcategory = "subcategory"
	ColAmount      = "amount"
)

var requiredColumns = []string{ColMonth, ColCategory, ColSubcategory, ColAmount}

// Accepted month layouts, tried in order.
var monthLayouts = []string{time.DateOnly, "2006-01", "2006/01/02"}

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("format error")

// FormatError reports malformed input: a missing column or an unparsable value.
type FormatError struct {
	Source string
	Line   int    // 0 when the problem is not tied to a line
	Column string // empty when not tied to a column
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ": value %q", e.Value)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// LoadFile opens path, parses it and closes it.
func LoadFile(path string) ([]core.LineItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Source: path, Err: fmt.Errorf("open: %w", err)}
	}
	defer f.Close()
	return Load(f, path)
}

// Load parses CSV with a header row into line items. source names the input
// in error messages.
func Load(r io.Reader, source string) ([]core.LineItem, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{Source: source, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvError(source, err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, &FormatError{Source: source, Line: 1, Err: err}
	}

	var items []core.LineItem
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		item, ferr := parseRecord(rec, cols, line)
		if ferr != nil {
			ferr.Source = source
			return nil, ferr
		}
		items = append(items, item)
	}
	return items, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; dup && name != "" {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		cols[name] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(rec []string, cols map[string]int, line int) (core.LineItem, *FormatError) {
	field := func(name string) string {
		return strings.TrimSpace(rec[cols[name]])
	}

	rawMonth := field(ColMonth)
	month, err := ParseMonth(rawMonth)
	if err != nil {
		return core.LineItem{}, &FormatError{Line: line, Column: ColMonth, Value: rawMonth, Err: err}
	}
	item := core.LineItem{
		Month:       month,
		Category:    field(ColCategory),
		Subcategory: field(ColSubcategory),
		Line:        line,
	}
	if err := item.Validate(); err != nil {
		return core.LineItem{}, &FormatError{Line: line, Column: invalidColumn(err), Err: err}
	}
	rawAmount := field(ColAmount)
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.LineItem{}, &FormatError{Line: line, Column: ColAmount, Value: rawAmount, Err: err}
	}
	item.Amount = amount
	return item, nil
}

func invalidColumn(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyCategory):
		return ColCategory
	case errors.Is(err, core.ErrEmptySubcategory):
		return ColSubcategory
	}
	return ColMonth
}

// ParseMonth parses an ISO date (or year-month) into a calendar date.
func ParseMonth(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, core.ErrInvalidMonth
}

func csvError(source string, err error) *FormatError {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FormatError{Source: source, Line: pe.Line, Err: pe.Err}
	}
	return &FormatError{Source: source, Err: err}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
