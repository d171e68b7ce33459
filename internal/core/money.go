// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal throughout so that repeated summation of
// two-decimal currency values never drifts.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxAmount is the largest amount a NUMERIC(14,2) column can hold.
var MaxAmount = decimal.RequireFromString("999999999999.99")

var (
	ErrAmountNotNumber = errors.New("amount is not a number")
	ErrAmountPrecision = errors.New("amount has more than 2 decimal places")
	ErrAmountTooLarge  = errors.New("amount too large")
)

// ParseAmount parses a positive amount with at most two decimal places.
//
// Both dot (12.34) and comma (12,34) separators are accepted.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
//	ParseAmount("1.005") -> 0, ErrAmountPrecision
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrAmountNotNumber
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountNotNumber
	}
	return d, CheckAmount(d)
}

// CheckAmount reports why d cannot be a transaction amount, if it cannot.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(2)) {
		return ErrAmountPrecision
	}
	if d.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}
