package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

func applyPersonalLoan(t *testing.T, f *fixture, owner domain.Actor, accountID string) domain.Loan {
	t.Helper()

	loan, err := f.loans.Apply(context.Background(), owner, services.ApplyLoanRequest{
		LoanType:              "personal",
		Principal:             dec("60000"),
		InterestRate:          decPtr("12"),
		TenureMonths:          6,
		Purpose:               "home repairs",
		DisbursementAccountID: accountID,
	})
	if err != nil {
		t.Fatalf("apply loan: %v", err)
	}
	return loan
}

func TestLoanServiceApplyFreezesQuote(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")

	loan := applyPersonalLoan(t, f, owner, account.ID)

	quote, err := services.CalculateEMI(dec("60000"), dec("12"), 6)
	if err != nil {
		t.Fatalf("calculate emi: %v", err)
	}
	if loan.Status != domain.LoanStatusPending {
		t.Fatalf("expected pending loan, got %s", loan.Status)
	}
	if !loan.EMIAmount.Equal(quote.EMI) || !loan.TotalPayable.Equal(quote.TotalPayable) {
		t.Fatalf("loan %+v does not carry the quote %+v", loan, quote)
	}
	if !loan.OutstandingAmount.Equal(loan.TotalPayable) || !loan.PaidAmount.IsZero() {
		t.Fatalf("unexpected opening figures: outstanding %s paid %s", loan.OutstandingAmount, loan.PaidAmount)
	}
	assertAmount(t, "account balance", f.balance(t, account.ID), "5000")
}

func TestLoanServiceApplyRejections(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	pending := f.registerOwner(t)
	ctx := context.Background()

	_, err := f.loans.Apply(ctx, owner, services.ApplyLoanRequest{LoanType: "personal", Principal: dec("9999999"), TenureMonths: 36})
	assertKind(t, err, domain.KindValidation)
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("expected exceeds maximum, got %v", err)
	}

	_, err = f.loans.Apply(ctx, pending, services.ApplyLoanRequest{LoanType: "personal", Principal: dec("10000"), TenureMonths: 12})
	assertRule(t, err, domain.RuleKYCNotVerified)

	_, err = f.loans.Apply(ctx, owner, services.ApplyLoanRequest{
		LoanType:     "personal",
		Principal:    dec("10000"),
		TenureMonths: 12,
		Purpose:      strings.Repeat("x", 501),
	})
	assertKind(t, err, domain.KindValidation)

	other := f.verifiedOwner(t)
	foreign := f.openAccount(t, other, "savings", "1000")
	_, err = f.loans.Apply(ctx, owner, services.ApplyLoanRequest{
		LoanType:              "personal",
		Principal:             dec("10000"),
		TenureMonths:          12,
		DisbursementAccountID: foreign.ID,
	})
	assertKind(t, err, domain.KindAuthorization)
}

func TestLoanServiceApproveDisburses(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")
	loan := applyPersonalLoan(t, f, owner, account.ID)
	ctx := context.Background()

	_, err := f.loans.Approve(ctx, owner, loan.ID)
	assertKind(t, err, domain.KindAuthorization)

	result, err := f.loans.Approve(ctx, f.admin, loan.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Loan.Status != domain.LoanStatusActive || result.Loan.ApprovedAt == nil || result.Loan.DisbursedAt == nil {
		t.Fatalf("unexpected approved loan %+v", result.Loan)
	}
	if result.Disbursement == nil {
		t.Fatalf("expected a disbursement")
	}
	txn := result.Disbursement.Transaction
	if txn.Type != domain.TransactionTypeLoanDisbursement || txn.LoanID == nil || *txn.LoanID != loan.ID {
		t.Fatalf("unexpected disbursement transaction %+v", txn)
	}
	assertAmount(t, "account balance", f.balance(t, account.ID), "65000")

	_, err = f.loans.Approve(ctx, f.admin, loan.ID)
	assertRule(t, err, domain.RuleInvalidLoanStatus)
	assertAmount(t, "account balance", f.balance(t, account.ID), "65000")

	if _, ok := f.sink.last(domain.AuditActionLoanDisbursed); !ok {
		t.Fatalf("expected loan_disbursed audit event, got %v", f.sink.actions())
	}
}

func TestLoanServiceReject(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")
	loan := applyPersonalLoan(t, f, owner, account.ID)
	ctx := context.Background()

	_, err := f.loans.Reject(ctx, f.admin, loan.ID, " ")
	assertKind(t, err, domain.KindValidation)

	rejected, err := f.loans.Reject(ctx, f.admin, loan.ID, "income not verified")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.LoanStatusRejected || *rejected.RejectionReason != "income not verified" {
		t.Fatalf("unexpected rejected loan %+v", rejected)
	}

	_, err = f.loans.Approve(ctx, f.admin, loan.ID)
	assertRule(t, err, domain.RuleInvalidLoanStatus)

	_, err = f.loans.PayEMI(ctx, owner, services.PayEMIRequest{LoanID: loan.ID, PaymentAccountID: account.ID, EMINumber: 1, Amount: loan.EMIAmount})
	assertRule(t, err, domain.RuleInvalidLoanStatus)
	assertAmount(t, "account balance", f.balance(t, account.ID), "5000")
}

func TestLoanServicePayEMIUntilClosed(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")
	loan := applyPersonalLoan(t, f, owner, account.ID)
	ctx := context.Background()

	if _, err := f.loans.Approve(ctx, f.admin, loan.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pay := func(number int, amount decimal.Decimal) (services.PayEMIResult, error) {
		return f.loans.PayEMI(ctx, owner, services.PayEMIRequest{
			LoanID:           loan.ID,
			PaymentAccountID: account.ID,
			EMINumber:        number,
			Amount:           amount,
		})
	}

	first, err := pay(1, loan.EMIAmount)
	if err != nil {
		t.Fatalf("pay emi 1: %v", err)
	}
	if first.Payment.Reference[:3] != "EMI" || first.Transaction.Type != domain.TransactionTypeLoanPayment {
		t.Fatalf("unexpected payment %+v", first.Payment)
	}
	if !first.Loan.OutstandingAmount.Equal(loan.TotalPayable.Sub(loan.EMIAmount)) || first.Loan.EMIsPaid != 1 {
		t.Fatalf("unexpected loan after first payment %+v", first.Loan)
	}

	_, err = pay(1, loan.EMIAmount)
	assertRule(t, err, domain.RuleEMIAlreadyPaid)

	_, err = pay(2, loan.EMIAmount.Add(dec("5")))
	assertRule(t, err, domain.RuleEMIAmountMismatch)

	_, err = f.loans.PayEMI(ctx, f.admin, services.PayEMIRequest{LoanID: loan.ID, PaymentAccountID: account.ID, EMINumber: 2, Amount: loan.EMIAmount})
	assertKind(t, err, domain.KindAuthorization)

	_, err = pay(7, loan.EMIAmount)
	assertKind(t, err, domain.KindValidation)

	if _, err := pay(2, loan.EMIAmount.Add(dec("0.50"))); err != nil {
		t.Fatalf("pay emi 2 within tolerance: %v", err)
	}
	for number := 3; number <= 5; number++ {
		if _, err := pay(number, loan.EMIAmount); err != nil {
			t.Fatalf("pay emi %d: %v", number, err)
		}
	}

	current, err := f.loans.GetLoan(ctx, owner, loan.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	_, err = pay(6, current.OutstandingAmount.Add(dec("0.01")))
	assertRule(t, err, domain.RuleEMIAmountMismatch)

	last, err := pay(6, current.OutstandingAmount)
	if err != nil {
		t.Fatalf("pay final emi: %v", err)
	}
	if last.Loan.Status != domain.LoanStatusClosed || last.Loan.ClosedAt == nil {
		t.Fatalf("expected closed loan, got %+v", last.Loan)
	}
	assertAmount(t, "outstanding", last.Loan.OutstandingAmount, "0")
	if !last.Loan.PaidAmount.Equal(loan.TotalPayable) {
		t.Fatalf("paid %s, expected %s", last.Loan.PaidAmount, loan.TotalPayable)
	}

	expected := dec("65000").Sub(loan.TotalPayable)
	if !f.balance(t, account.ID).Equal(expected) {
		t.Fatalf("account balance %s, expected %s", f.balance(t, account.ID), expected)
	}

	_, err = pay(6, loan.EMIAmount)
	assertRule(t, err, domain.RuleInvalidLoanStatus)
}

func TestLoanServicePayEMIInsufficientFundsLeavesLoanUntouched(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	disbursement := f.openAccount(t, owner, "savings", "5000")
	empty := f.openAccount(t, owner, "savings", "1000")
	loan := applyPersonalLoan(t, f, owner, disbursement.ID)
	ctx := context.Background()

	if _, err := f.loans.Approve(ctx, f.admin, loan.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := f.loans.PayEMI(ctx, owner, services.PayEMIRequest{LoanID: loan.ID, PaymentAccountID: empty.ID, EMINumber: 1, Amount: loan.EMIAmount})
	assertRule(t, err, domain.RuleInsufficientFunds)

	current, err := f.loans.GetLoan(ctx, owner, loan.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if current.EMIsPaid != 0 || !current.OutstandingAmount.Equal(loan.TotalPayable) {
		t.Fatalf("failed payment changed the loan: %+v", current)
	}
	payments, err := f.store.ListEMIPayments(ctx, loan.ID)
	if err != nil || len(payments) != 0 {
		t.Fatalf("expected no payments, got %d (%v)", len(payments), err)
	}
}

func TestLoanServiceScheduleMergesPayments(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")
	loan := applyPersonalLoan(t, f, owner, account.ID)
	ctx := context.Background()

	if _, err := f.loans.Approve(ctx, f.admin, loan.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	for number := 1; number <= 2; number++ {
		if _, err := f.loans.PayEMI(ctx, owner, services.PayEMIRequest{LoanID: loan.ID, PaymentAccountID: account.ID, EMINumber: number, Amount: loan.EMIAmount}); err != nil {
			t.Fatalf("pay emi %d: %v", number, err)
		}
	}

	schedule, err := f.loans.GetSchedule(ctx, owner, loan.ID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if len(schedule.Lines) != loan.TenureMonths {
		t.Fatalf("expected %d lines, got %d", loan.TenureMonths, len(schedule.Lines))
	}
	for i, line := range schedule.Lines {
		paid := i < 2
		if paid != (line.Status == domain.ScheduleLinePaid) {
			t.Fatalf("line %d has status %s", line.Month, line.Status)
		}
		if paid && (line.AmountPaid == nil || line.Reference == nil || line.PaidAt == nil) {
			t.Fatalf("paid line %d is missing payment details", line.Month)
		}
		if !line.EMI.Equal(loan.EMIAmount) && i != len(schedule.Lines)-1 {
			t.Fatalf("line %d emi %s differs from frozen emi %s", line.Month, line.EMI, loan.EMIAmount)
		}
	}

	_, err = f.loans.GetSchedule(ctx, domain.Actor{OwnerID: uuid.NewString(), Role: domain.RoleCustomer}, loan.ID)
	assertKind(t, err, domain.KindAuthorization)
}

func TestLoanServiceListLoans(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")
	applyPersonalLoan(t, f, owner, account.ID)
	applyPersonalLoan(t, f, owner, "")
	ctx := context.Background()

	loans, err := f.loans.ListLoans(ctx, owner, "")
	if err != nil {
		t.Fatalf("list loans: %v", err)
	}
	if len(loans) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(loans))
	}

	_, err = f.loans.ListLoans(ctx, domain.Actor{OwnerID: uuid.NewString(), Role: domain.RoleCustomer}, owner.OwnerID)
	assertKind(t, err, domain.KindAuthorization)

	_, err = f.loans.GetLoan(ctx, owner, uuid.NewString())
	assertKind(t, err, domain.KindNotFound)
}

func TestLoanServiceCalculateEMI(t *testing.T) {
	f := newFixture(t)

	quote, err := f.loans.CalculateEMI(" Personal ", dec("500000"), decPtr("12.5"), 36)
	if err != nil {
		t.Fatalf("calculate emi: %v", err)
	}
	assertAmount(t, "emi", quote.EMI, "16726.81")
}

func TestLoanServiceSmallestLoansStillClose(t *testing.T) {
	f := newFixture(t)
	owner := f.verifiedOwner(t)
	account := f.openAccount(t, owner, "savings", "5000")
	ctx := context.Background()

	_, err := f.loans.Apply(ctx, owner, services.ApplyLoanRequest{
		LoanType: "personal", Principal: dec("0.05"), TenureMonths: 6, DisbursementAccountID: account.ID,
	})
	assertKind(t, err, domain.KindValidation)

	loan, err := f.loans.Apply(ctx, owner, services.ApplyLoanRequest{
		LoanType: "personal", Principal: dec("0.06"), InterestRate: decPtr("1"), TenureMonths: 6, DisbursementAccountID: account.ID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	assertAmount(t, "emi", loan.EMIAmount, "0.01")
	if _, err := f.loans.Approve(ctx, f.admin, loan.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var last services.PayEMIResult
	for number := 1; number <= 6; number++ {
		last, err = f.loans.PayEMI(ctx, owner, services.PayEMIRequest{
			LoanID: loan.ID, PaymentAccountID: account.ID, EMINumber: number, Amount: dec("0.01"),
		})
		if err != nil {
			t.Fatalf("pay emi %d: %v", number, err)
		}
	}
	if last.Loan.Status != domain.LoanStatusClosed || !last.Loan.OutstandingAmount.IsZero() {
		t.Fatalf("expected closed loan, got %s with %s outstanding", last.Loan.Status, last.Loan.OutstandingAmount)
	}
}
