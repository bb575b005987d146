package domain

import (
	"context"
	"time"
)

type TransactionReader interface {
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	// ListTransactions returns rows touching accountID created in [from, to), newest first.
	ListTransactions(ctx context.Context, accountID string, from, to time.Time) ([]Transaction, error)
	// SearchTransactions returns rows matching filter, newest first. An empty
	// AccountIDs matches nothing.
	SearchTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
}

type TransactionWriter interface {
	// InsertTransaction fails with ErrDuplicateReference when the reference is taken.
	InsertTransaction(ctx context.Context, txn Transaction) (Transaction, error)
}

type DailyAggregateReader interface {
	GetDailyAggregate(ctx context.Context, accountID string, date time.Time) (DailyTransferAggregate, error)
}

type DailyAggregateWriter interface {
	// LockDailyAggregate gets or creates the (account, date) row and locks it.
	LockDailyAggregate(ctx context.Context, accountID string, date time.Time) (DailyTransferAggregate, error)
	SaveDailyAggregate(ctx context.Context, aggregate DailyTransferAggregate) error
}
