package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
)

func loanLockKey(id string) string {
	return "loan:" + id
}

func (t *Tx) GetLoan(_ context.Context, id string) (domain.Loan, error) {
	if t.staged != nil {
		if row, ok := t.staged.loans[id]; ok {
			return row, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.store.loans[id]
	if !ok {
		return domain.Loan{}, domain.ErrRecordNotFound
	}
	return row, nil
}

func (t *Tx) ListLoansByOwner(_ context.Context, ownerID string) ([]domain.Loan, error) {
	rows := make(map[string]domain.Loan)

	t.store.mu.RLock()
	for id, row := range t.store.loans {
		if row.OwnerID == ownerID {
			rows[id] = row
		}
	}
	t.store.mu.RUnlock()

	if t.staged != nil {
		for id, row := range t.staged.loans {
			if row.OwnerID == ownerID {
				rows[id] = row
			}
		}
	}

	out := make([]domain.Loan, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (t *Tx) ListEMIPayments(_ context.Context, loanID string) ([]domain.LoanEMIPayment, error) {
	rows := make(map[string]domain.LoanEMIPayment)

	t.store.mu.RLock()
	for id, row := range t.store.emiPayments {
		if row.LoanID == loanID {
			rows[id] = row
		}
	}
	t.store.mu.RUnlock()

	if t.staged != nil {
		for id, row := range t.staged.emiPayments {
			if row.LoanID == loanID {
				rows[id] = row
			}
		}
	}

	out := make([]domain.LoanEMIPayment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EMINumber < out[j].EMINumber })
	return out, nil
}

func (t *Tx) CreateLoan(_ context.Context, loan domain.Loan) (domain.Loan, error) {
	if err := t.writable(); err != nil {
		return domain.Loan{}, err
	}

	now := t.store.now()
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	loan.CreatedAt = now
	loan.UpdatedAt = now

	t.staged.loans[loan.ID] = loan
	return loan, nil
}

func (t *Tx) LockLoan(ctx context.Context, id string) (domain.Loan, error) {
	if err := t.writable(); err != nil {
		return domain.Loan{}, err
	}

	t.lock(loanLockKey(id))
	return t.GetLoan(ctx, id)
}

func (t *Tx) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !t.holds(loanLockKey(loan.ID)) {
		return fmt.Errorf("update loan %s: row not locked", loan.ID)
	}
	if _, err := t.GetLoan(ctx, loan.ID); err != nil {
		return err
	}

	loan.UpdatedAt = t.store.now()
	t.staged.loans[loan.ID] = loan
	return nil
}

func (t *Tx) InsertEMIPayment(_ context.Context, payment domain.LoanEMIPayment) (domain.LoanEMIPayment, error) {
	if err := t.writable(); err != nil {
		return domain.LoanEMIPayment{}, err
	}
	if !t.reserve(fmt.Sprintf("emi:%s:%d", payment.LoanID, payment.EMINumber)) {
		return domain.LoanEMIPayment{}, domain.ErrDuplicateEMIPayment
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.PaidAt = t.store.now()

	t.staged.emiPayments[payment.ID] = payment
	return payment, nil
}
