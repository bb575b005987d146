package domain

import "context"

type LoanReader interface {
	GetLoan(ctx context.Context, id string) (Loan, error)
	ListLoansByOwner(ctx context.Context, ownerID string) ([]Loan, error)
	ListEMIPayments(ctx context.Context, loanID string) ([]LoanEMIPayment, error)
}

type LoanWriter interface {
	CreateLoan(ctx context.Context, loan Loan) (Loan, error)
	LockLoan(ctx context.Context, id string) (Loan, error)
	UpdateLoan(ctx context.Context, loan Loan) error
	// InsertEMIPayment fails with ErrDuplicateEMIPayment when (loan, emi number) exists.
	InsertEMIPayment(ctx context.Context, payment LoanEMIPayment) (LoanEMIPayment, error)
}
