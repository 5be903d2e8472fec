// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings.
// Amounts are exact decimals; no currency is implied.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Thousands
// separators are not supported. Negative values are rejected: the entry type
// carries the sign.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, InvalidArgument("amount", ErrMissingAmount.Error())
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, InvalidArgument("amount", "not a decimal number")
	}
	if d.IsNegative() {
		return decimal.Zero, InvalidArgument("amount", "must not be negative")
	}
	return d, nil
}

// FormatAmount renders an amount with at least two decimal places.
func FormatAmount(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}
