package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// DailyLimitTracker caps the outgoing transfer total per account and calendar day.
// The aggregate row is keyed by date, so a new day starts from zero without a reset job.
type DailyLimitTracker struct{}

func NewDailyLimitTracker() *DailyLimitTracker {
	return &DailyLimitTracker{}
}

// RecordOutgoing adds amount to the account's aggregate for the day of at. It must run
// in the same unit of work as the balance mutation it guards.
func (t *DailyLimitTracker) RecordOutgoing(ctx context.Context, tx domain.Tx, account domain.Account, amount decimal.Decimal, at time.Time) (domain.DailyTransferAggregate, error) {
	aggregate, err := tx.LockDailyAggregate(ctx, account.ID, at)
	if err != nil {
		return domain.DailyTransferAggregate{}, fmt.Errorf("lock daily aggregate: %w", err)
	}

	projected := aggregate.TotalTransferred.Add(amount)
	if projected.GreaterThan(account.DailyLimit) {
		return domain.DailyTransferAggregate{}, domain.DailyLimitExceeded(
			account.ID,
			account.DailyLimit,
			aggregate.TotalTransferred,
			amount,
			remaining(account.DailyLimit, aggregate.TotalTransferred),
		)
	}

	aggregate.TotalTransferred = projected
	aggregate.Count++
	if err := tx.SaveDailyAggregate(ctx, aggregate); err != nil {
		return domain.DailyTransferAggregate{}, fmt.Errorf("save daily aggregate: %w", err)
	}

	return aggregate, nil
}

// Remaining reports how much of the account's daily limit is left for the day of at.
func (t *DailyLimitTracker) Remaining(ctx context.Context, reader domain.DailyAggregateReader, account domain.Account, at time.Time) (decimal.Decimal, error) {
	aggregate, err := reader.GetDailyAggregate(ctx, account.ID, at)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return account.DailyLimit, nil
		}
		return decimal.Zero, fmt.Errorf("get daily aggregate: %w", err)
	}
	return remaining(account.DailyLimit, aggregate.TotalTransferred), nil
}

func remaining(limit, used decimal.Decimal) decimal.Decimal {
	left := limit.Sub(used)
	if left.Sign() < 0 {
		return decimal.Zero
	}
	return left
}
