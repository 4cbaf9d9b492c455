package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budgetreport/internal/core"

	"github.com/shopspring/decimal"
)

func TestLoadParsesRows(t *testing.T) {
	in := "\ufeffMonth, Category ,subcategory,amount,notes\n" +
		"2024-01-01,Food,Snacks,100.50,weekly\n" +
		"\n" +
		"2024-02,Food,Groceries,\"1,234\",\n" +
		" , , , ,\n" +
		"2024/03/01,Rent,Flat,-20,refund\n"

	items, err := Load(strings.NewReader(in), "budget.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	want := []struct {
		month  core.Date
		cat    string
		sub    string
		amount string
		line   int
	}{
		{core.NewDate(2024, 1, 1), "Food", "Snacks", "100.50", 2},
		{core.NewDate(2024, 2, 1), "Food", "Groceries", "1234", 4},
		{core.NewDate(2024, 3, 1), "Rent", "Flat", "-20", 6},
	}
	for i, w := range want {
		got := items[i]
		if got.Month != w.month || got.Category != w.cat || got.Subcategory != w.sub {
			t.Errorf("item %d: got %+v", i, got)
		}
		if !got.Amount.Equal(decimal.RequireFromString(w.amount)) {
			t.Errorf("item %d: amount %s, want %s", i, got.Amount, w.amount)
		}
		if got.Line != w.line {
			t.Errorf("item %d: line %d, want %d", i, got.Line, w.line)
		}
	}
}

func TestLoadFormatErrors(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		line   int
		column string
	}{
		{"empty input", "", 1, ""},
		{"missing amount column", "month,category,subcategory\n2024-01-01,a,b\n", 1, ""},
		{"bad month", "month,category,subcategory,amount\n2024-13-01,a,b,1\n", 2, ColMonth},
		{"bad amount", "month,category,subcategory,amount\n2024-01-01,a,b,1\n2024-01-01,a,b,ten\n", 3, ColAmount},
		{"decimal comma amount", "month,category,subcategory,amount\n2024-01-01,a,b,\"1,5\"\n", 2, ColAmount},
		{"european amount", "month,category,subcategory,amount\n2024-01-01,a,b,\"1.234,56\"\n", 2, ColAmount},
		{"empty category", "month,category,subcategory,amount\n2024-01-01,,b,1\n", 2, ColCategory},
		{"empty subcategory", "month,category,subcategory,amount\n2024-01-01,a,,1\n", 2, ColSubcategory},
		{"wrong field count", "month,category,subcategory,amount\n2024-01-01,a,b\n", 2, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.in), "actuals.csv")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if fe.Source != "actuals.csv" {
				t.Errorf("source = %q", fe.Source)
			}
			if fe.Line != tc.line {
				t.Errorf("line = %d, want %d (%v)", fe.Line, tc.line, err)
			}
			if fe.Column != tc.column {
				t.Errorf("column = %q, want %q", fe.Column, tc.column)
			}
			if !strings.Contains(err.Error(), "actuals.csv") {
				t.Errorf("message should name the source: %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "budget.csv")
	if err := os.WriteFile(path, []byte("month,category,subcategory,amount\n2024-01-01,Food,Snacks,100\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	items, err := LoadFile(path)
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected result: %v %v", items, err)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.csv"))
	if !errors.Is(err, ErrFormat) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected format error wrapping not-exist, got %v", err)
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want core.Date
		ok   bool
	}{
		{"2024-01-15", core.NewDate(2024, 1, 15), true},
		{"2024-01", core.NewDate(2024, 1, 1), true},
		{"2024/12/01", core.NewDate(2024, 12, 1), true},
		{"01/2024", core.Date{}, false},
		{"", core.Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v err=%v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}
