package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

const loanColumns = `id, owner_id, loan_type, principal, interest_rate, tenure_months,
	emi_amount, total_interest, total_payable, outstanding_amount, paid_amount, emis_paid,
	purpose, status, disbursement_account_id, approved_by, approved_at, rejected_by,
	rejection_reason, disbursed_at, closed_at, created_at, updated_at`

func scanLoan(row rowScanner) (domain.Loan, error) {
	var (
		loan                              domain.Loan
		disbursementAccountID, approvedBy sql.NullString
		rejectedBy, rejectionReason       sql.NullString
		approvedAt, disbursedAt, closedAt sql.NullTime
	)
	if err := row.Scan(
		&loan.ID,
		&loan.OwnerID,
		&loan.Type,
		&loan.Principal,
		&loan.InterestRate,
		&loan.TenureMonths,
		&loan.EMIAmount,
		&loan.TotalInterest,
		&loan.TotalPayable,
		&loan.OutstandingAmount,
		&loan.PaidAmount,
		&loan.EMIsPaid,
		&loan.Purpose,
		&loan.Status,
		&disbursementAccountID,
		&approvedBy,
		&approvedAt,
		&rejectedBy,
		&rejectionReason,
		&disbursedAt,
		&closedAt,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	); err != nil {
		return domain.Loan{}, err
	}

	loan.DisbursementAccountID = stringPtr(disbursementAccountID)
	loan.ApprovedBy = stringPtr(approvedBy)
	loan.ApprovedAt = timePtr(approvedAt)
	loan.RejectedBy = stringPtr(rejectedBy)
	loan.RejectionReason = stringPtr(rejectionReason)
	loan.DisbursedAt = timePtr(disbursedAt)
	loan.ClosedAt = timePtr(closedAt)
	return loan, nil
}

func (r reader) GetLoan(ctx context.Context, id string) (domain.Loan, error) {
	return r.getLoan(ctx, id, false)
}

func (r reader) getLoan(ctx context.Context, id string, forUpdate bool) (domain.Loan, error) {
	if !validID(id) {
		return domain.Loan{}, domain.ErrRecordNotFound
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	loan, err := scanLoan(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Loan{}, domain.ErrRecordNotFound
		}
		logger.Error("loan repository get failed", err, logger.Fields{
			"loanId": id,
		})
		return domain.Loan{}, fmt.Errorf("get loan: %w", err)
	}

	return loan, nil
}

func (r reader) ListLoansByOwner(ctx context.Context, ownerID string) ([]domain.Loan, error) {
	if !validID(ownerID) {
		return []domain.Loan{}, nil
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.Error("loan repository list failed", err, logger.Fields{
			"ownerId": ownerID,
		})
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := make([]domain.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}

	return loans, nil
}

func (r reader) ListEMIPayments(ctx context.Context, loanID string) ([]domain.LoanEMIPayment, error) {
	if !validID(loanID) {
		return []domain.LoanEMIPayment{}, nil
	}

	const query = `
SELECT id, loan_id, emi_number, amount_paid, payment_account_id, transaction_id, reference, status, paid_at
FROM loan_emi_payments
WHERE loan_id = $1
ORDER BY emi_number`

	rows, err := r.q.QueryContext(ctx, query, loanID)
	if err != nil {
		logger.Error("loan repository list emi payments failed", err, logger.Fields{
			"loanId": loanID,
		})
		return nil, fmt.Errorf("list emi payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.LoanEMIPayment, 0)
	for rows.Next() {
		var payment domain.LoanEMIPayment
		if err := rows.Scan(
			&payment.ID,
			&payment.LoanID,
			&payment.EMINumber,
			&payment.AmountPaid,
			&payment.PaymentAccountID,
			&payment.TransactionID,
			&payment.Reference,
			&payment.Status,
			&payment.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("scan emi payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emi payments: %w", err)
	}

	return payments, nil
}

func (t *Tx) CreateLoan(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	logger.Info("loan repository create", logger.Fields{
		"ownerId":  loan.OwnerID,
		"loanType": loan.Type,
	})

	const query = `
INSERT INTO loans (
	id,
	owner_id,
	loan_type,
	principal,
	interest_rate,
	tenure_months,
	emi_amount,
	total_interest,
	total_payable,
	outstanding_amount,
	paid_amount,
	emis_paid,
	purpose,
	status,
	disbursement_account_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING created_at, updated_at`

	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}

	if err := t.q.QueryRowContext(
		ctx,
		query,
		loan.ID,
		loan.OwnerID,
		loan.Type,
		loan.Principal,
		loan.InterestRate,
		loan.TenureMonths,
		loan.EMIAmount,
		loan.TotalInterest,
		loan.TotalPayable,
		loan.OutstandingAmount,
		loan.PaidAmount,
		loan.EMIsPaid,
		loan.Purpose,
		loan.Status,
		nullString(loan.DisbursementAccountID),
	).Scan(&loan.CreatedAt, &loan.UpdatedAt); err != nil {
		logger.Error("loan repository create failed", err, logger.Fields{
			"ownerId": loan.OwnerID,
		})
		return domain.Loan{}, fmt.Errorf("create loan: %w", err)
	}

	return loan, nil
}

func (t *Tx) LockLoan(ctx context.Context, id string) (domain.Loan, error) {
	return t.getLoan(ctx, id, true)
}

func (t *Tx) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	const query = `
UPDATE loans
SET outstanding_amount = $2,
    paid_amount = $3,
    emis_paid = $4,
    status = $5,
    approved_by = $6,
    approved_at = $7,
    rejected_by = $8,
    rejection_reason = $9,
    disbursed_at = $10,
    closed_at = $11,
    updated_at = NOW()
WHERE id = $1`

	if err := execRequiredRows(ctx, t.q, query,
		loan.ID,
		loan.OutstandingAmount,
		loan.PaidAmount,
		loan.EMIsPaid,
		loan.Status,
		nullString(loan.ApprovedBy),
		nullTime(loan.ApprovedAt),
		nullString(loan.RejectedBy),
		nullString(loan.RejectionReason),
		nullTime(loan.DisbursedAt),
		nullTime(loan.ClosedAt),
	); err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("loan repository update failed", err, logger.Fields{
				"loanId": loan.ID,
			})
		}
		return err
	}
	return nil
}

func (t *Tx) InsertEMIPayment(ctx context.Context, payment domain.LoanEMIPayment) (domain.LoanEMIPayment, error) {
	const query = `
INSERT INTO loan_emi_payments (
	id,
	loan_id,
	emi_number,
	amount_paid,
	payment_account_id,
	transaction_id,
	reference,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (loan_id, emi_number) DO NOTHING
RETURNING paid_at`

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	if err := t.q.QueryRowContext(
		ctx,
		query,
		payment.ID,
		payment.LoanID,
		payment.EMINumber,
		payment.AmountPaid,
		payment.PaymentAccountID,
		payment.TransactionID,
		payment.Reference,
		payment.Status,
	).Scan(&payment.PaidAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LoanEMIPayment{}, domain.ErrDuplicateEMIPayment
		}
		logger.Error("loan repository insert emi payment failed", err, logger.Fields{
			"loanId":    payment.LoanID,
			"emiNumber": payment.EMINumber,
		})
		return domain.LoanEMIPayment{}, fmt.Errorf("insert emi payment: %w", err)
	}

	return payment, nil
}
