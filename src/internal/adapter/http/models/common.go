package models

import (
	"errors"
	"strings"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func required(errs []error, field, value string) []error {
	if strings.TrimSpace(value) == "" {
		return append(errs, domain.NewValidationError(field, "is required"))
	}
	return errs
}

func parseAmount(errs []error, field, raw string) (decimal.Decimal, []error) {
	amount, err := domain.ParseAmount(field, raw)
	if err != nil {
		return decimal.Zero, append(errs, err)
	}
	return amount, errs
}

// parseRate parses an optional percentage. An empty value means the default rate.
func parseRate(errs []error, field, raw string) (*decimal.Decimal, []error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, errs
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return nil, append(errs, domain.NewValidationError(field, "must be a decimal number"))
	}
	return &rate, errs
}

func parseDate(errs []error, field, raw string) (*time.Time, []error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, errs
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, append(errs, domain.NewValidationError(field, "must be in YYYY-MM-DD format"))
	}
	return &parsed, errs
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := formatTime(*t)
	return &v
}

func formatAmountPtr(amount *decimal.Decimal) *string {
	if amount == nil {
		return nil
	}
	v := amount.StringFixed(2)
	return &v
}
