package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DailyTransferAggregate struct {
	AccountID        string
	Date             time.Time
	TotalTransferred decimal.Decimal
	Count            int
	UpdatedAt        time.Time
}

// BusinessDate truncates t to its UTC calendar day.
func BusinessDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
