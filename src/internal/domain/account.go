package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings      AccountType = "savings"
	AccountTypeCurrent      AccountType = "current"
	AccountTypeFixedDeposit AccountType = "fixed_deposit"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
)

type Account struct {
	ID            string
	OwnerID       string
	AccountNumber string
	Type          AccountType
	Balance       decimal.Decimal
	MinBalance    decimal.Decimal
	DailyLimit    decimal.Decimal
	InterestRate  *decimal.Decimal
	MaturityDate  *time.Time
	Status        AccountStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailableBalance is the only spendable figure: balance above the minimum floor.
func (a Account) AvailableBalance() decimal.Decimal {
	return a.Balance.Sub(a.MinBalance)
}

func (a Account) CanDebit(amount decimal.Decimal) bool {
	return a.AvailableBalance().GreaterThanOrEqual(amount)
}

func (a Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
