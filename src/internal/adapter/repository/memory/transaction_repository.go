package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func (t *Tx) GetTransaction(_ context.Context, id string) (domain.Transaction, error) {
	if t.staged != nil {
		if row, ok := t.staged.transactions[id]; ok {
			return row, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.store.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return row, nil
}

func (t *Tx) ListTransactions(ctx context.Context, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	return t.SearchTransactions(ctx, domain.TransactionFilter{AccountIDs: []string{accountID}, From: from, To: to})
}

func (t *Tx) SearchTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if len(filter.AccountIDs) == 0 {
		return []domain.Transaction{}, nil
	}

	rows := make(map[string]domain.Transaction)
	t.store.mu.RLock()
	for id, row := range t.store.transactions {
		if filter.Matches(row) {
			rows[id] = row
		}
	}
	t.store.mu.RUnlock()

	if t.staged != nil {
		for id, row := range t.staged.transactions {
			if filter.Matches(row) {
				rows[id] = row
			}
		}
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Reference > out[j].Reference
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (t *Tx) InsertTransaction(_ context.Context, txn domain.Transaction) (domain.Transaction, error) {
	if err := t.writable(); err != nil {
		return domain.Transaction{}, err
	}
	if !t.reserve("reference:" + txn.Reference) {
		return domain.Transaction{}, domain.ErrDuplicateReference
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	txn.CreatedAt = t.store.now()

	t.staged.transactions[txn.ID] = txn
	return txn, nil
}

func (t *Tx) GetDailyAggregate(_ context.Context, accountID string, date time.Time) (domain.DailyTransferAggregate, error) {
	key := newAggregateKey(accountID, date)
	if t.staged != nil {
		if row, ok := t.staged.aggregates[key]; ok {
			return row, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.store.aggregates[key]
	if !ok {
		return domain.DailyTransferAggregate{}, domain.ErrRecordNotFound
	}
	return row, nil
}

func (t *Tx) LockDailyAggregate(ctx context.Context, accountID string, date time.Time) (domain.DailyTransferAggregate, error) {
	if err := t.writable(); err != nil {
		return domain.DailyTransferAggregate{}, err
	}

	key := newAggregateKey(accountID, date)
	t.lock("aggregate:" + key.accountID + ":" + key.date)

	row, err := t.GetDailyAggregate(ctx, accountID, date)
	if err == nil {
		return row, nil
	}
	if err != domain.ErrRecordNotFound {
		return domain.DailyTransferAggregate{}, err
	}

	row = domain.DailyTransferAggregate{
		AccountID:        accountID,
		Date:             domain.BusinessDate(date),
		TotalTransferred: decimal.Zero,
		UpdatedAt:        t.store.now(),
	}
	t.staged.aggregates[key] = row
	return row, nil
}

func (t *Tx) SaveDailyAggregate(_ context.Context, aggregate domain.DailyTransferAggregate) error {
	if err := t.writable(); err != nil {
		return err
	}

	aggregate.Date = domain.BusinessDate(aggregate.Date)
	aggregate.UpdatedAt = t.store.now()
	t.staged.aggregates[newAggregateKey(aggregate.AccountID, aggregate.Date)] = aggregate
	return nil
}
