package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeTransfer         TransactionType = "transfer"
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeLoanDisbursement TransactionType = "loan_disbursement"
	TransactionTypeLoanPayment      TransactionType = "loan_payment"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeLoanDisbursement, TransactionTypeLoanPayment:
		return true
	default:
		return false
	}
}

// ReferencePrefix returns the reference prefix used for a transaction type.
func (t TransactionType) ReferencePrefix() string {
	switch t {
	case TransactionTypeTransfer:
		return "TXN"
	case TransactionTypeDeposit:
		return "DEP"
	case TransactionTypeWithdrawal:
		return "WDR"
	case TransactionTypeLoanDisbursement:
		return "LND"
	case TransactionTypeLoanPayment:
		return "EMI"
	default:
		return "GEN"
	}
}

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction is append-only. Sides that were not touched keep nil balances.
type Transaction struct {
	ID                string
	Reference         string
	Type              TransactionType
	FromAccountID     *string
	ToAccountID       *string
	Amount            decimal.Decimal
	FromBalanceBefore *decimal.Decimal
	FromBalanceAfter  *decimal.Decimal
	ToBalanceBefore   *decimal.Decimal
	ToBalanceAfter    *decimal.Decimal
	LoanID            *string
	Description       string
	Status            TransactionStatus
	CreatedAt         time.Time
}

func (t Transaction) Touches(accountID string) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// TransactionFilter narrows a history search to rows touching any of AccountIDs.
// Zero values of the other fields leave that dimension unconstrained. The time
// range is half-open, [From, To).
type TransactionFilter struct {
	AccountIDs []string
	Type       TransactionType
	From       time.Time
	To         time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

func (f TransactionFilter) Matches(t Transaction) bool {
	touches := false
	for _, id := range f.AccountIDs {
		if t.Touches(id) {
			touches = true
			break
		}
	}
	switch {
	case !touches:
		return false
	case f.Type != "" && t.Type != f.Type:
		return false
	case !f.From.IsZero() && t.CreatedAt.Before(f.From):
		return false
	case !f.To.IsZero() && !t.CreatedAt.Before(f.To):
		return false
	case f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount):
		return false
	case f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount):
		return false
	}
	return true
}
