// Package core provides the domain types of the budget tracker.
//
// This file contains functions for parsing and formatting monetary amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places. Zero is accepted; signs, exponents and any
// other characters are rejected with ErrInvalidAmount.
//
// Examples:
//   ParseAmount("12.34")  -> 12.34
//   ParseAmount("12,345") -> 12.35
//   ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	s = intPart
	if fracPart != "" {
		s += "." + fracPart
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with exactly two decimals, as stored in ledgers.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
