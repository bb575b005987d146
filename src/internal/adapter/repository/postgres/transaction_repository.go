package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, reference, transaction_type, from_account_id, to_account_id, amount,
	from_balance_before, from_balance_after, to_balance_before, to_balance_after,
	loan_id, description, status, created_at`

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		txn                                      domain.Transaction
		fromAccountID, toAccountID, loanID       sql.NullString
		fromBefore, fromAfter, toBefore, toAfter decimal.NullDecimal
	)
	if err := row.Scan(
		&txn.ID,
		&txn.Reference,
		&txn.Type,
		&fromAccountID,
		&toAccountID,
		&txn.Amount,
		&fromBefore,
		&fromAfter,
		&toBefore,
		&toAfter,
		&loanID,
		&txn.Description,
		&txn.Status,
		&txn.CreatedAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	txn.FromAccountID = stringPtr(fromAccountID)
	txn.ToAccountID = stringPtr(toAccountID)
	txn.LoanID = stringPtr(loanID)
	txn.FromBalanceBefore = decimalPtr(fromBefore)
	txn.FromBalanceAfter = decimalPtr(fromAfter)
	txn.ToBalanceBefore = decimalPtr(toBefore)
	txn.ToBalanceAfter = decimalPtr(toAfter)
	return txn, nil
}

func (r reader) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	if !validID(id) {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	return txn, nil
}

func (r reader) ListTransactions(ctx context.Context, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	return r.SearchTransactions(ctx, domain.TransactionFilter{AccountIDs: []string{accountID}, From: from, To: to})
}

func (r reader) SearchTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query, args, ok := transactionSearchQuery(filter)
	if !ok {
		return []domain.Transaction{}, nil
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("transaction repository search failed", err, logger.Fields{
			"accountIds": filter.AccountIDs,
			"type":       filter.Type,
		})
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}

// transactionSearchQuery renders filter as one parameterized SELECT. It reports false
// when no account id in the filter can exist.
func transactionSearchQuery(filter domain.TransactionFilter) (string, []any, bool) {
	ids := make([]string, 0, len(filter.AccountIDs))
	for _, id := range filter.AccountIDs {
		if canonical, ok := canonicalID(id); ok {
			ids = append(ids, canonical)
		}
	}
	if len(ids) == 0 {
		return "", nil, false
	}

	args := []any{pq.Array(ids)}
	conditions := []string{"(from_account_id = ANY($1::uuid[]) OR to_account_id = ANY($1::uuid[]))"}
	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Type != "" {
		add("transaction_type = $%d", string(filter.Type))
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at < $%d", filter.To)
	}
	if filter.MinAmount != nil {
		add("amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("amount <= $%d", *filter.MaxAmount)
	}

	query := `SELECT ` + transactionColumns + `
FROM transactions
WHERE ` + strings.Join(conditions, "\n  AND ") + `
ORDER BY created_at DESC, reference DESC`
	return query, args, true
}

func (t *Tx) InsertTransaction(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository insert", logger.Fields{
		"reference": txn.Reference,
		"type":      txn.Type,
	})

	const query = `
INSERT INTO transactions (
	id,
	reference,
	transaction_type,
	from_account_id,
	to_account_id,
	amount,
	from_balance_before,
	from_balance_after,
	to_balance_before,
	to_balance_after,
	loan_id,
	description,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (reference) DO NOTHING
RETURNING created_at`

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	if err := t.q.QueryRowContext(
		ctx,
		query,
		txn.ID,
		txn.Reference,
		txn.Type,
		nullString(txn.FromAccountID),
		nullString(txn.ToAccountID),
		txn.Amount,
		nullDecimal(txn.FromBalanceBefore),
		nullDecimal(txn.FromBalanceAfter),
		nullDecimal(txn.ToBalanceBefore),
		nullDecimal(txn.ToBalanceAfter),
		nullString(txn.LoanID),
		txn.Description,
		txn.Status,
	).Scan(&txn.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrDuplicateReference
		}
		logger.Error("transaction repository insert failed", err, logger.Fields{
			"reference": txn.Reference,
		})
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	return txn, nil
}

func scanAggregate(row rowScanner) (domain.DailyTransferAggregate, error) {
	var aggregate domain.DailyTransferAggregate
	if err := row.Scan(
		&aggregate.AccountID,
		&aggregate.Date,
		&aggregate.TotalTransferred,
		&aggregate.Count,
		&aggregate.UpdatedAt,
	); err != nil {
		return domain.DailyTransferAggregate{}, err
	}
	aggregate.Date = domain.BusinessDate(aggregate.Date)
	return aggregate, nil
}

func (r reader) GetDailyAggregate(ctx context.Context, accountID string, date time.Time) (domain.DailyTransferAggregate, error) {
	if !validID(accountID) {
		return domain.DailyTransferAggregate{}, domain.ErrRecordNotFound
	}

	const query = `
SELECT account_id, transfer_date, total_transferred, transfer_count, updated_at
FROM daily_transfer_aggregates
WHERE account_id = $1 AND transfer_date = $2`

	aggregate, err := scanAggregate(r.q.QueryRowContext(ctx, query, accountID, domain.BusinessDate(date)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DailyTransferAggregate{}, domain.ErrRecordNotFound
		}
		return domain.DailyTransferAggregate{}, fmt.Errorf("get daily aggregate: %w", err)
	}
	return aggregate, nil
}

func (t *Tx) LockDailyAggregate(ctx context.Context, accountID string, date time.Time) (domain.DailyTransferAggregate, error) {
	day := domain.BusinessDate(date)

	const insert = `
INSERT INTO daily_transfer_aggregates (account_id, transfer_date, total_transferred, transfer_count)
VALUES ($1, $2, 0, 0)
ON CONFLICT (account_id, transfer_date) DO NOTHING`

	if _, err := t.q.ExecContext(ctx, insert, accountID, day); err != nil {
		return domain.DailyTransferAggregate{}, fmt.Errorf("create daily aggregate: %w", err)
	}

	const query = `
SELECT account_id, transfer_date, total_transferred, transfer_count, updated_at
FROM daily_transfer_aggregates
WHERE account_id = $1 AND transfer_date = $2
FOR UPDATE`

	aggregate, err := scanAggregate(t.q.QueryRowContext(ctx, query, accountID, day))
	if err != nil {
		return domain.DailyTransferAggregate{}, fmt.Errorf("lock daily aggregate: %w", err)
	}
	return aggregate, nil
}

func (t *Tx) SaveDailyAggregate(ctx context.Context, aggregate domain.DailyTransferAggregate) error {
	const query = `
UPDATE daily_transfer_aggregates
SET total_transferred = $3,
    transfer_count = $4,
    updated_at = NOW()
WHERE account_id = $1 AND transfer_date = $2`

	if err := execRequiredRows(ctx, t.q, query,
		aggregate.AccountID,
		domain.BusinessDate(aggregate.Date),
		aggregate.TotalTransferred,
		aggregate.Count,
	); err != nil {
		return fmt.Errorf("save daily aggregate: %w", err)
	}
	return nil
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*value)
}

func decimalPtr(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}
