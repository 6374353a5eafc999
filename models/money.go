package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money columns are decimal(MoneyPrecision, MoneyScale).
const (
	MoneyPrecision = 30
	MoneyScale     = 8
	MoneyIntDigits = MoneyPrecision - MoneyScale
)

var (
	ErrMoneyFormat    = errors.New("must be a non-negative decimal number")
	ErrMoneyScale     = fmt.Errorf("must have at most %d decimal places", MoneyScale)
	ErrMoneyMagnitude = fmt.Errorf("must have at most %d integer digits", MoneyIntDigits)
)

var moneyLimit = decimal.New(1, MoneyIntDigits)

// ParseMoney parses a non-negative decimal literal such as "300.50" that a
// money column stores exactly. Signs and exponents are rejected.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	intPart, frac, ok := splitDecimal(s)
	if !ok {
		return decimal.Zero, ErrMoneyFormat
	}
	if len(strings.TrimRight(frac, "0")) > MoneyScale {
		return decimal.Zero, ErrMoneyScale
	}
	if len(strings.TrimLeft(intPart, "0")) > MoneyIntDigits {
		return decimal.Zero, ErrMoneyMagnitude
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrMoneyFormat
	}
	return d, nil
}

// FitsMoney reports whether d can be stored in a money column unchanged.
func FitsMoney(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThanOrEqual(moneyLimit) {
		return false
	}
	return d.Equal(d.Truncate(MoneyScale))
}

func splitDecimal(s string) (intPart, frac string, ok bool) {
	intPart, frac, hasDot := strings.Cut(s, ".")
	if !allDigits(intPart) || (hasDot && !allDigits(frac)) {
		return "", "", false
	}
	return intPart, frac, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
