package domain

import "context"

// Reader is the read side of the store. Reads take no exclusive locks.
type Reader interface {
	AccountReader
	TransactionReader
	DailyAggregateReader
	LoanReader
	OwnerReader
}

// Tx is one unit of work. Everything written through it commits together or not at all.
type Tx interface {
	Reader
	AccountWriter
	TransactionWriter
	DailyAggregateWriter
	LoanWriter
	OwnerWriter
}

// Store is the persistence collaborator. WithinTx retries lock conflicts a bounded
// number of times and reports exhaustion as a ConcurrencyConflictError.
type Store interface {
	Reader
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
