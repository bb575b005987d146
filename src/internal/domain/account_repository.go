package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type AccountReader interface {
	GetAccount(ctx context.Context, id string) (Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]Account, error)
}

type AccountWriter interface {
	CreateAccount(ctx context.Context, account Account) (Account, error)
	// LockAccounts locks every id in ascending order and returns the rows in argument order.
	LockAccounts(ctx context.Context, ids ...string) ([]Account, error)
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error
}
