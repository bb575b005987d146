package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

const maxPurposeLength = 500

// LoanService drives the loan state machine. EMI figures are frozen into the loan at
// application time; disbursement and installments move money through the ledger.
type LoanService struct {
	store      domain.Store
	calculator *AmortizationCalculator
	ledger     *LedgerService
	tolerance  decimal.Decimal
	audit      auditor
	now        func() time.Time
}

func NewLoanService(store domain.Store, calculator *AmortizationCalculator, ledger *LedgerService, tolerance decimal.Decimal, sink domain.AuditSink) *LoanService {
	s := &LoanService{
		store:      store,
		calculator: calculator,
		ledger:     ledger,
		tolerance:  tolerance,
		now:        func() time.Time { return time.Now().UTC() },
	}
	s.audit = newAuditor(sink, func() time.Time { return s.now() })
	return s
}

type ApplyLoanRequest struct {
	LoanType              string
	Principal             decimal.Decimal
	InterestRate          *decimal.Decimal
	TenureMonths          int
	Purpose               string
	DisbursementAccountID string
}

type PayEMIRequest struct {
	LoanID           string
	PaymentAccountID string
	EMINumber        int
	Amount           decimal.Decimal
}

type ApprovalResult struct {
	Loan         domain.Loan
	Disbursement *PostingResult
}

type PayEMIResult struct {
	Payment     domain.LoanEMIPayment
	Loan        domain.Loan
	Transaction domain.Transaction
	Account     domain.Account
}

type LoanSchedule struct {
	Loan  domain.Loan
	Lines []domain.ScheduleLine
}

// CalculateEMI quotes a loan without creating it.
func (s *LoanService) CalculateEMI(loanType string, principal decimal.Decimal, rate *decimal.Decimal, tenureMonths int) (EMICalculation, error) {
	return s.calculator.Calculate(parseLoanType(loanType), principal, rate, tenureMonths)
}

func (s *LoanService) Apply(ctx context.Context, actor domain.Actor, req ApplyLoanRequest) (domain.Loan, error) {
	loanType := parseLoanType(req.LoanType)
	fields := logger.Fields{
		"ownerId":      actor.OwnerID,
		"loanType":     loanType,
		"principal":    req.Principal.StringFixed(2),
		"tenureMonths": req.TenureMonths,
	}
	logger.Info("loan service apply request", fields)

	loan, err := s.apply(ctx, actor, loanType, req)

	event := domain.AuditEvent{
		Action:       domain.AuditActionLoanApplication,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "loan",
		ResourceID:   loan.ID,
		Amount:       amountPtr(req.Principal),
		Details:      map[string]any{"loanType": string(loanType), "tenureMonths": req.TenureMonths},
	}
	if err == nil {
		event.Details["emiAmount"] = loan.EMIAmount.StringFixed(2)
		event.Details["interestRate"] = loan.InterestRate.String()
		fields["loanId"] = loan.ID
		fields["emiAmount"] = loan.EMIAmount.StringFixed(2)
	}
	s.audit.record(ctx, event, err)
	logOutcome("loan service apply", err, fields)

	return loan, err
}

func (s *LoanService) apply(ctx context.Context, actor domain.Actor, loanType domain.LoanType, req ApplyLoanRequest) (domain.Loan, error) {
	if strings.TrimSpace(actor.OwnerID) == "" {
		return domain.Loan{}, domain.NewAuthorizationError("caller identity is required")
	}

	quote, err := s.calculator.Calculate(loanType, req.Principal, req.InterestRate, req.TenureMonths)
	if err != nil {
		return domain.Loan{}, err
	}

	purpose := strings.TrimSpace(req.Purpose)
	if len(purpose) > maxPurposeLength {
		return domain.Loan{}, domain.NewValidationError("purpose", fmt.Sprintf("must be at most %d characters", maxPurposeLength))
	}
	accountID := strings.TrimSpace(req.DisbursementAccountID)

	var created domain.Loan
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := RequireVerified(ctx, tx, actor.OwnerID); err != nil {
			return err
		}

		var disbursementAccount *string
		if accountID != "" {
			account, err := tx.GetAccount(ctx, accountID)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					return fmt.Errorf("disbursement account not found: %w", err)
				}
				return fmt.Errorf("get disbursement account: %w", err)
			}
			if !actor.Owns(account.OwnerID) {
				return domain.NewAuthorizationError("caller does not own the disbursement account")
			}
			if !account.IsActive() {
				return domain.AccountInactive(account.ID, account.Status)
			}
			disbursementAccount = stringPtr(account.ID)
		}

		loan, err := tx.CreateLoan(ctx, domain.Loan{
			OwnerID:               actor.OwnerID,
			Type:                  loanType,
			Principal:             quote.Principal,
			InterestRate:          quote.AnnualRate,
			TenureMonths:          quote.TenureMonths,
			EMIAmount:             quote.EMI,
			TotalInterest:         quote.TotalInterest,
			TotalPayable:          quote.TotalPayable,
			OutstandingAmount:     quote.TotalPayable,
			PaidAmount:            decimal.Zero,
			Purpose:               purpose,
			Status:                domain.LoanStatusPending,
			DisbursementAccountID: disbursementAccount,
		})
		if err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		created = loan
		return nil
	})
	if err != nil {
		return domain.Loan{}, err
	}

	return created, nil
}

// Approve activates a pending loan and, when a disbursement account is on file,
// credits the principal in the same unit of work.
func (s *LoanService) Approve(ctx context.Context, actor domain.Actor, loanID string) (ApprovalResult, error) {
	fields := logger.Fields{
		"loanId":  loanID,
		"adminId": actor.OwnerID,
	}
	logger.Info("loan service approve request", fields)

	result, err := s.approve(ctx, actor, loanID)

	event := domain.AuditEvent{
		Action:       domain.AuditActionLoanApproved,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "loan",
		ResourceID:   loanID,
	}
	if err == nil {
		event.Amount = amountPtr(result.Loan.Principal)
		event.Details = map[string]any{"ownerId": result.Loan.OwnerID, "disbursed": result.Disbursement != nil}
	}
	s.audit.record(ctx, event, err)

	if err == nil && result.Disbursement != nil {
		txn := result.Disbursement.Transaction
		before, after := sideBalances(txn)
		s.audit.record(ctx, domain.AuditEvent{
			Action:       domain.AuditActionLoanDisbursed,
			ActorID:      actor.OwnerID,
			ActorRole:    actor.Role,
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			Reference:    txn.Reference,
			Amount:       amountPtr(txn.Amount),
			Balances:     []domain.BalanceChange{balanceChange(result.Disbursement.Account.ID, before, after)},
			Details:      map[string]any{"loanId": result.Loan.ID},
		}, nil)
		fields["reference"] = txn.Reference
	}
	logOutcome("loan service approve", err, fields)

	return result, err
}

func (s *LoanService) approve(ctx context.Context, actor domain.Actor, loanID string) (ApprovalResult, error) {
	if !actor.IsAdmin() {
		return ApprovalResult{}, domain.NewAuthorizationError("admin role required")
	}
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return ApprovalResult{}, domain.NewValidationError("loanId", "is required")
	}

	var result ApprovalResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return loanLookupError(err)
		}
		if !loan.Status.CanTransition(domain.LoanStatusActive) {
			return domain.InvalidLoanStatus(loan.ID, loan.Status, "approve")
		}

		now := s.now()
		loan.Status = domain.LoanStatusActive
		loan.ApprovedBy = stringPtr(actor.OwnerID)
		loan.ApprovedAt = &now

		if loan.DisbursementAccountID != nil {
			description := fmt.Sprintf("Disbursement of %s loan", loan.Type)
			posted, err := s.ledger.Disburse(ctx, tx, *loan.DisbursementAccountID, loan.Principal, description, loan.ID)
			if err != nil {
				return err
			}
			loan.DisbursedAt = &now
			result.Disbursement = &posted
		}

		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}

		result.Loan = loan
		return nil
	})
	if err != nil {
		return ApprovalResult{}, err
	}

	return result, nil
}

func (s *LoanService) Reject(ctx context.Context, actor domain.Actor, loanID string, reason string) (domain.Loan, error) {
	fields := logger.Fields{
		"loanId":  loanID,
		"adminId": actor.OwnerID,
	}
	logger.Info("loan service reject request", fields)

	loan, err := s.reject(ctx, actor, loanID, reason)

	event := domain.AuditEvent{
		Action:       domain.AuditActionLoanRejected,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "loan",
		ResourceID:   loanID,
		Details:      map[string]any{"reason": strings.TrimSpace(reason)},
	}
	s.audit.record(ctx, event, err)
	logOutcome("loan service reject", err, fields)

	return loan, err
}

func (s *LoanService) reject(ctx context.Context, actor domain.Actor, loanID string, reason string) (domain.Loan, error) {
	if !actor.IsAdmin() {
		return domain.Loan{}, domain.NewAuthorizationError("admin role required")
	}
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return domain.Loan{}, domain.NewValidationError("loanId", "is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Loan{}, domain.NewValidationError("reason", "is required")
	}

	var rejected domain.Loan
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return loanLookupError(err)
		}
		if !loan.Status.CanTransition(domain.LoanStatusRejected) {
			return domain.InvalidLoanStatus(loan.ID, loan.Status, "reject")
		}

		loan.Status = domain.LoanStatusRejected
		loan.RejectedBy = stringPtr(actor.OwnerID)
		loan.RejectionReason = stringPtr(reason)

		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}

		rejected = loan
		return nil
	})
	if err != nil {
		return domain.Loan{}, err
	}

	return rejected, nil
}

// PayEMI settles one installment. Each EMI number can be paid once. Every installment
// but the one that closes the loan must be within the tolerance of the frozen EMI;
// the closing one must equal the outstanding amount exactly.
func (s *LoanService) PayEMI(ctx context.Context, actor domain.Actor, req PayEMIRequest) (PayEMIResult, error) {
	fields := logger.Fields{
		"loanId":           req.LoanID,
		"paymentAccountId": req.PaymentAccountID,
		"emiNumber":        req.EMINumber,
		"amount":           req.Amount.StringFixed(2),
	}
	logger.Info("loan service pay emi request", fields)

	result, err := s.payEMI(ctx, actor, req)

	event := domain.AuditEvent{
		Action:       domain.AuditActionLoanPayment,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "loan",
		ResourceID:   req.LoanID,
		Amount:       amountPtr(req.Amount),
		Details:      map[string]any{"emiNumber": req.EMINumber},
	}
	if err == nil {
		event.ResourceType = "emi_payment"
		event.ResourceID = result.Payment.ID
		event.Reference = result.Payment.Reference
		before, after := sideBalances(result.Transaction)
		event.Balances = []domain.BalanceChange{balanceChange(result.Account.ID, before, after)}
		event.Details["loanId"] = result.Loan.ID
		event.Details["outstanding"] = result.Loan.OutstandingAmount.StringFixed(2)
		event.Details["loanStatus"] = string(result.Loan.Status)
		fields["reference"] = result.Payment.Reference
		fields["loanStatus"] = result.Loan.Status
	}
	s.audit.record(ctx, event, err)
	logOutcome("loan service pay emi", err, fields)

	return result, err
}

func (s *LoanService) payEMI(ctx context.Context, actor domain.Actor, req PayEMIRequest) (PayEMIResult, error) {
	loanID := strings.TrimSpace(req.LoanID)
	if loanID == "" {
		return PayEMIResult{}, domain.NewValidationError("loanId", "is required")
	}
	if strings.TrimSpace(req.PaymentAccountID) == "" {
		return PayEMIResult{}, domain.NewValidationError("paymentAccountId", "is required")
	}
	if req.EMINumber <= 0 {
		return PayEMIResult{}, domain.NewValidationError("emiNumber", "must be greater than zero")
	}
	if err := domain.ValidateAmount("amount", req.Amount); err != nil {
		return PayEMIResult{}, err
	}

	var result PayEMIResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return loanLookupError(err)
		}
		if !actor.Owns(loan.OwnerID) {
			return domain.NewAuthorizationError("caller does not own the loan")
		}
		if loan.Status != domain.LoanStatusActive {
			return domain.InvalidLoanStatus(loan.ID, loan.Status, "pay emi on")
		}
		if req.EMINumber > loan.TenureMonths {
			return domain.NewValidationError("emiNumber", fmt.Sprintf("must be between 1 and %d", loan.TenureMonths))
		}

		payments, err := tx.ListEMIPayments(ctx, loan.ID)
		if err != nil {
			return fmt.Errorf("list emi payments: %w", err)
		}
		for _, payment := range payments {
			if payment.EMINumber == req.EMINumber && payment.Status == domain.EMIPaymentStatusPaid {
				return domain.EMIAlreadyPaid(loan.ID, req.EMINumber)
			}
		}

		if err := s.checkInstallment(loan, req.EMINumber, req.Amount); err != nil {
			return err
		}

		description := fmt.Sprintf("EMI payment for %s loan - Month %d", loan.Type, req.EMINumber)
		posted, err := s.ledger.SettleEMI(ctx, tx, loan.OwnerID, req.PaymentAccountID, req.Amount, description, loan.ID)
		if err != nil {
			return err
		}

		payment, err := tx.InsertEMIPayment(ctx, domain.LoanEMIPayment{
			LoanID:           loan.ID,
			EMINumber:        req.EMINumber,
			AmountPaid:       req.Amount,
			PaymentAccountID: posted.Account.ID,
			TransactionID:    posted.Transaction.ID,
			Reference:        posted.Transaction.Reference,
			Status:           domain.EMIPaymentStatusPaid,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateEMIPayment) {
				return domain.EMIAlreadyPaid(loan.ID, req.EMINumber)
			}
			return fmt.Errorf("insert emi payment: %w", err)
		}

		loan.OutstandingAmount = loan.OutstandingAmount.Sub(req.Amount)
		loan.PaidAmount = loan.PaidAmount.Add(req.Amount)
		loan.EMIsPaid++
		if loan.EMIsPaid == loan.TenureMonths {
			now := s.now()
			loan.Status = domain.LoanStatusClosed
			loan.ClosedAt = &now
		}
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}

		result = PayEMIResult{
			Payment:     payment,
			Loan:        loan,
			Transaction: posted.Transaction,
			Account:     posted.Account,
		}
		return nil
	})
	if err != nil {
		return PayEMIResult{}, err
	}

	return result, nil
}

func (s *LoanService) checkInstallment(loan domain.Loan, emiNumber int, amount decimal.Decimal) error {
	if loan.ClosesWithNextPayment() {
		if !amount.Equal(loan.OutstandingAmount) {
			return domain.EMIAmountMismatch(loan.ID, emiNumber, loan.OutstandingAmount, amount, decimal.Zero)
		}
		return nil
	}

	if amount.Sub(loan.EMIAmount).Abs().GreaterThan(s.tolerance) {
		return domain.EMIAmountMismatch(loan.ID, emiNumber, loan.EMIAmount, amount, s.tolerance)
	}
	// an early installment must leave something for the closing one
	if !amount.LessThan(loan.OutstandingAmount) {
		return domain.EMIAmountMismatch(loan.ID, emiNumber, loan.OutstandingAmount, amount, decimal.Zero)
	}
	return nil
}

// GetSchedule merges the loan's amortization schedule with its recorded payments.
// The schedule is rebuilt from the frozen principal, rate and tenure, so it matches
// the figures computed at application time.
func (s *LoanService) GetSchedule(ctx context.Context, actor domain.Actor, loanID string) (LoanSchedule, error) {
	loan, err := s.GetLoan(ctx, actor, loanID)
	if err != nil {
		return LoanSchedule{}, err
	}

	calc, err := CalculateEMI(loan.Principal, loan.InterestRate, loan.TenureMonths)
	if err != nil {
		return LoanSchedule{}, fmt.Errorf("rebuild schedule: %w", err)
	}

	payments, err := s.store.ListEMIPayments(ctx, loan.ID)
	if err != nil {
		logger.Error("loan service list emi payments failed", err, logger.Fields{"loanId": loan.ID})
		return LoanSchedule{}, fmt.Errorf("list emi payments: %w", err)
	}
	paid := make(map[int]domain.LoanEMIPayment, len(payments))
	for _, payment := range payments {
		if payment.Status == domain.EMIPaymentStatusPaid {
			paid[payment.EMINumber] = payment
		}
	}

	lines := make([]domain.ScheduleLine, 0, len(calc.Schedule))
	for _, entry := range calc.Schedule {
		line := domain.ScheduleLine{ScheduleEntry: entry, Status: domain.ScheduleLinePending}
		if payment, ok := paid[entry.Month]; ok {
			paidAt := payment.PaidAt
			line.Status = domain.ScheduleLinePaid
			line.AmountPaid = amountPtr(payment.AmountPaid)
			line.Reference = stringPtr(payment.Reference)
			line.PaidAt = &paidAt
		}
		lines = append(lines, line)
	}

	return LoanSchedule{Loan: loan, Lines: lines}, nil
}

func (s *LoanService) GetLoan(ctx context.Context, actor domain.Actor, loanID string) (domain.Loan, error) {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return domain.Loan{}, domain.NewValidationError("loanId", "is required")
	}

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("loan service get loan failed", err, logger.Fields{"loanId": loanID})
		}
		return domain.Loan{}, loanLookupError(err)
	}
	if !actor.CanRead(loan.OwnerID) {
		return domain.Loan{}, domain.NewAuthorizationError("caller cannot read this loan")
	}

	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.Loan, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		ownerID = actor.OwnerID
	}
	if !actor.CanRead(ownerID) {
		return nil, domain.NewAuthorizationError("caller cannot read these loans")
	}

	loans, err := s.store.ListLoansByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("loan service list loans failed", err, logger.Fields{"ownerId": ownerID})
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

func parseLoanType(raw string) domain.LoanType {
	return domain.LoanType(strings.ToLower(strings.TrimSpace(raw)))
}

func loanLookupError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("loan not found: %w", err)
	}
	return fmt.Errorf("get loan: %w", err)
}
