package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanType string

const (
	LoanTypePersonal  LoanType = "personal"
	LoanTypeHome      LoanType = "home"
	LoanTypeAuto      LoanType = "auto"
	LoanTypeEducation LoanType = "education"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusActive   LoanStatus = "active"
	LoanStatusRejected LoanStatus = "rejected"
	LoanStatusClosed   LoanStatus = "closed"
)

// CanTransition reports whether the loan state machine has an edge from s to next.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	switch s {
	case LoanStatusPending:
		return next == LoanStatusActive || next == LoanStatusRejected
	case LoanStatusActive:
		return next == LoanStatusClosed
	default:
		return false
	}
}

func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusRejected || s == LoanStatusClosed
}

// Loan holds the EMI figures frozen at application time.
type Loan struct {
	ID                    string
	OwnerID               string
	Type                  LoanType
	Principal             decimal.Decimal
	InterestRate          decimal.Decimal
	TenureMonths          int
	EMIAmount             decimal.Decimal
	TotalInterest         decimal.Decimal
	TotalPayable          decimal.Decimal
	OutstandingAmount     decimal.Decimal
	PaidAmount            decimal.Decimal
	EMIsPaid              int
	Purpose               string
	Status                LoanStatus
	DisbursementAccountID *string
	ApprovedBy            *string
	ApprovedAt            *time.Time
	RejectedBy            *string
	RejectionReason       *string
	DisbursedAt           *time.Time
	ClosedAt              *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (l Loan) NextEMINumber() int {
	if l.EMIsPaid >= l.TenureMonths {
		return 0
	}
	return l.EMIsPaid + 1
}

// ClosesWithNextPayment reports whether one more installment settles the loan.
func (l Loan) ClosesWithNextPayment() bool {
	return l.EMIsPaid+1 == l.TenureMonths
}

type EMIPaymentStatus string

const (
	EMIPaymentStatusPaid EMIPaymentStatus = "paid"
)

type LoanEMIPayment struct {
	ID               string
	LoanID           string
	EMINumber        int
	AmountPaid       decimal.Decimal
	PaymentAccountID string
	TransactionID    string
	Reference        string
	Status           EMIPaymentStatus
	PaidAt           time.Time
}

type ScheduleEntry struct {
	Month     int
	EMI       decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Balance   decimal.Decimal
}

type ScheduleLineStatus string

const (
	ScheduleLinePaid    ScheduleLineStatus = "paid"
	ScheduleLinePending ScheduleLineStatus = "pending"
)

// ScheduleLine is a frozen schedule row merged with its payment, if any.
type ScheduleLine struct {
	ScheduleEntry
	Status     ScheduleLineStatus
	AmountPaid *decimal.Decimal
	Reference  *string
	PaidAt     *time.Time
}
