package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	Date struct {
		time.Time
	}

	// Key identifies one budget line: a month, a category and a subcategory.
	Key struct {
		Month       Date
		Category    string
		Subcategory string
	}

	// LineItem is a single record as read from a budget or actuals source.
	LineItem struct {
		Month       Date
		Category    string
		Subcategory string
		Amount      decimal.Decimal
		Line        int // 1-based source line, 0 when unknown
	}

	// AggregatedRow is the sum of all line items sharing a Key within one dataset.
	AggregatedRow struct {
		Key
		Amount decimal.Decimal
	}

	// Ratio is a percentage that may be undefined (zero denominator).
	Ratio struct {
		Value decimal.Decimal
		Valid bool
	}

	// Figures holds the budget/actual comparison for any grouping.
	Figures struct {
		Budget      decimal.Decimal
		Actual      decimal.Decimal
		Variance    decimal.Decimal // Actual - Budget
		VariancePct Ratio           // Variance / Budget
	}

	// CombinedRow is one line of the budget/actuals outer join.
	CombinedRow struct {
		Key
		Figures
	}
)

var (
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptySubcategory = errors.New("empty subcategory")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Compare orders dates chronologically, returning -1, 0 or +1.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (k Key) Validate() error {
	if err := k.Month.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(k.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(k.Subcategory) == "" {
		return ErrEmptySubcategory
	}
	return nil
}

// Less orders keys by month, then category, then subcategory.
func (k Key) Less(o Key) bool {
	if c := k.Month.Compare(o.Month); c != 0 {
		return c < 0
	}
	if k.Category != o.Category {
		return k.Category < o.Category
	}
	return k.Subcategory < o.Subcategory
}

// Key returns the grouping key of the item.
func (li LineItem) Key() Key {
	return Key{Month: li.Month, Category: li.Category, Subcategory: li.Subcategory}
}

func (li LineItem) Validate() error {
	return li.Key().Validate()
}

// NewRatio divides num by den. The result is undefined when den is zero.
func NewRatio(num, den decimal.Decimal) Ratio {
	if den.IsZero() {
		return Ratio{}
	}
	return Ratio{Value: num.Div(den), Valid: true}
}

// NewFigures derives variance and variance percentage from budget and actual.
func NewFigures(budget, actual decimal.Decimal) Figures {
	variance := actual.Sub(budget)
	return Figures{
		Budget:      budget,
		Actual:      actual,
		Variance:    variance,
		VariancePct: NewRatio(variance, budget),
	}
}

// SumFigures builds Figures from already summed budget, actual and variance.
// The percentage is recomputed from the sums, never averaged.
func SumFigures(budget, actual, variance decimal.Decimal) Figures {
	return Figures{
		Budget:      budget,
		Actual:      actual,
		Variance:    variance,
		VariancePct: NewRatio(variance, budget),
	}
}
