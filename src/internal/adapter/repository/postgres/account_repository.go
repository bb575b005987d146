package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, owner_id, account_number, account_type, balance, min_balance, daily_limit, interest_rate, maturity_date, status, created_at, updated_at`

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		account      domain.Account
		interestRate decimal.NullDecimal
		maturityDate sql.NullTime
	)
	if err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.AccountNumber,
		&account.Type,
		&account.Balance,
		&account.MinBalance,
		&account.DailyLimit,
		&interestRate,
		&maturityDate,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return domain.Account{}, err
	}

	if interestRate.Valid {
		rate := interestRate.Decimal
		account.InterestRate = &rate
	}
	account.MaturityDate = timePtr(maturityDate)
	return account, nil
}

func (r reader) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	if !validID(id) {
		return domain.Account{}, domain.ErrRecordNotFound
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}

	return account, nil
}

func (r reader) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	if !validID(ownerID) {
		return []domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.Error("account repository list failed", err, logger.Fields{
			"ownerId": ownerID,
		})
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (t *Tx) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"ownerId":       account.OwnerID,
		"accountNumber": account.AccountNumber,
		"accountType":   account.Type,
	})

	const query = `
INSERT INTO accounts (
	id,
	owner_id,
	account_number,
	account_type,
	balance,
	min_balance,
	daily_limit,
	interest_rate,
	maturity_date,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (account_number) DO NOTHING
RETURNING created_at, updated_at`

	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	var interestRate decimal.NullDecimal
	if account.InterestRate != nil {
		interestRate = decimal.NewNullDecimal(*account.InterestRate)
	}

	if err := t.q.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.OwnerID,
		account.AccountNumber,
		account.Type,
		account.Balance,
		account.MinBalance,
		account.DailyLimit,
		interestRate,
		nullTime(account.MaturityDate),
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
		logger.Error("account repository create failed", err, logger.Fields{
			"ownerId":       account.OwnerID,
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (t *Tx) LockAccounts(ctx context.Context, ids ...string) ([]domain.Account, error) {
	canonical := make([]string, 0, len(ids))
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id, ok := canonicalID(raw)
		if !ok {
			return nil, domain.ErrRecordNotFound
		}
		canonical = append(canonical, id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`

	rows, err := t.q.QueryContext(ctx, query, pq.Array(unique))
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]domain.Account, len(unique))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		locked[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}

	out := make([]domain.Account, 0, len(canonical))
	for _, id := range canonical {
		account, ok := locked[id]
		if !ok {
			return nil, domain.ErrRecordNotFound
		}
		out = append(out, account)
	}
	return out, nil
}

func (t *Tx) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	const query = `
UPDATE accounts
SET balance = $2,
    updated_at = NOW()
WHERE id = $1`

	if err := execRequiredRows(ctx, t.q, query, id, balance); err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("account repository update balance failed", err, logger.Fields{
				"accountId": id,
			})
		}
		return err
	}
	return nil
}
