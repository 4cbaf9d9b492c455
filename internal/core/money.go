// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and formatting amounts and percentages for console output.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to an exact decimal amount.
//
// The decimal separator is the dot. Commas are only accepted as thousands
// separators in well-formed groups of three digits before the dot. A leading
// sign is allowed since actuals may carry refunds.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34
//	ParseAmount("1,234.50")  -> 1234.5
//	ParseAmount("1,234,567") -> 1234567
//	ParseAmount("-7")        -> -7
//	ParseAmount("12,34")     -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart, frac, _ := strings.Cut(body, ".")
	if strings.Contains(frac, ".") || strings.Contains(frac, ",") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(intPart, ",") {
		if !groupedThousands(intPart) {
			return decimal.Zero, ErrInvalidAmount
		}
		intPart = strings.ReplaceAll(intPart, ",", "")
	}
	if !digits(intPart) || !digits(frac) || intPart+frac == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	num := intPart
	if num == "" {
		num = "0"
	}
	if frac != "" {
		num += "." + frac
	}
	if s[0] == '-' {
		num = "-" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// groupedThousands reports whether s looks like 1,234 or 12,345,678.
func groupedThousands(s string) bool {
	groups := strings.Split(s, ",")
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders an amount with two decimals, e.g. "1234.50".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatRatio renders a ratio as a percentage with one decimal, or "n/a".
func FormatRatio(r Ratio) string {
	if !r.Valid {
		return "n/a"
	}
	return r.Value.Mul(hundred).StringFixed(1) + "%"
}
