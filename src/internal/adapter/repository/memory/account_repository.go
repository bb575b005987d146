package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func accountLockKey(id string) string {
	return "account:" + id
}

func (t *Tx) GetAccount(_ context.Context, id string) (domain.Account, error) {
	if t.staged != nil {
		if row, ok := t.staged.accounts[id]; ok {
			return row, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.store.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return row, nil
}

func (t *Tx) ListAccountsByOwner(_ context.Context, ownerID string) ([]domain.Account, error) {
	rows := make(map[string]domain.Account)

	t.store.mu.RLock()
	for id, row := range t.store.accounts {
		if row.OwnerID == ownerID {
			rows[id] = row
		}
	}
	t.store.mu.RUnlock()

	if t.staged != nil {
		for id, row := range t.staged.accounts {
			if row.OwnerID == ownerID {
				rows[id] = row
			}
		}
	}

	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *Tx) CreateAccount(_ context.Context, account domain.Account) (domain.Account, error) {
	if err := t.writable(); err != nil {
		return domain.Account{}, err
	}
	if !t.reserve("account_number:" + account.AccountNumber) {
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	}

	now := t.store.now()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	t.staged.accounts[account.ID] = account
	return account, nil
}

func (t *Tx) LockAccounts(ctx context.Context, ids ...string) ([]domain.Account, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, accountLockKey(id))
	}
	t.lock(keys...)

	out := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		row, err := t.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *Tx) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !t.holds(accountLockKey(id)) {
		return fmt.Errorf("update account %s balance: row not locked", id)
	}

	row, err := t.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	row.Balance = balance
	row.UpdatedAt = t.store.now()

	t.staged.accounts[id] = row
	return nil
}
