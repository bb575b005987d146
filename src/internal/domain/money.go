package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the single ledger currency. Every amount carries its fraction digits.
const Currency = money.INR

// MaxAmount is the largest amount the ledger accepts for a single value.
var MaxAmount = decimal.RequireFromString("999999999999.99")

func currencyFraction() int32 {
	cur := money.GetCurrency(Currency)
	if cur == nil {
		return 2
	}
	return int32(cur.Fraction)
}

// ParseAmount converts user supplied text into an exact ledger amount.
// Values with more fraction digits than the currency allows are rejected, never rounded.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, NewValidationError(field, "is required")
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "must be a decimal number")
	}

	if err := ValidateAmount(field, parsed); err != nil {
		return decimal.Zero, err
	}

	return parsed, nil
}

func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return NewValidationError(field, "must be greater than zero")
	}
	if amount.GreaterThan(MaxAmount) {
		return NewValidationError(field, fmt.Sprintf("exceeds maximum of %s", MaxAmount.StringFixed(2)))
	}
	if !HasCurrencyScale(amount) {
		return NewValidationError(field, fmt.Sprintf("must have at most %d fractional digits", currencyFraction()))
	}
	return nil
}

func HasCurrencyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(currencyFraction()))
}

// RoundMoney rounds half to even at the currency scale.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(currencyFraction())
}

func FormatAmount(amount decimal.Decimal) string {
	cur := money.GetCurrency(Currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}
