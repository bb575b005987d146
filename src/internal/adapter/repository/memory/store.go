package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
)

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*Tx)(nil)

type aggregateKey struct {
	accountID string
	date      string
}

func newAggregateKey(accountID string, date time.Time) aggregateKey {
	return aggregateKey{accountID: accountID, date: domain.BusinessDate(date).Format("2006-01-02")}
}

// Store keeps every entity in an id keyed map. Units of work stage their writes
// and hold row locks until they commit or roll back.
type Store struct {
	mu       sync.RWMutex
	locks    *rowLocks
	now      func() time.Time
	uniques  map[string]struct{}
	reserved map[string]struct{}

	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	aggregates   map[aggregateKey]domain.DailyTransferAggregate
	loans        map[string]domain.Loan
	emiPayments  map[string]domain.LoanEMIPayment
	owners       map[string]domain.Owner
	kycDocuments map[string]domain.KYCDocument
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		locks:        newRowLocks(),
		now:          func() time.Time { return time.Now().UTC() },
		uniques:      make(map[string]struct{}),
		reserved:     make(map[string]struct{}),
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		aggregates:   make(map[aggregateKey]domain.DailyTransferAggregate),
		loans:        make(map[string]domain.Loan),
		emiPayments:  make(map[string]domain.LoanEMIPayment),
		owners:       make(map[string]domain.Owner),
		kycDocuments: make(map[string]domain.KYCDocument),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Tx{
		store:  s,
		staged: newChanges(),
		held:   make(map[string]struct{}),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	tx.commit()
	return nil
}

func (s *Store) view() *Tx {
	return &Tx{store: s}
}

func (s *Store) reserve(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uniques[key]; ok {
		return false
	}
	if _, ok := s.reserved[key]; ok {
		return false
	}
	s.reserved[key] = struct{}{}
	return true
}

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return s.view().GetAccount(ctx, id)
}

func (s *Store) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	return s.view().ListAccountsByOwner(ctx, ownerID)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	return s.view().GetTransaction(ctx, id)
}

func (s *Store) ListTransactions(ctx context.Context, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	return s.view().ListTransactions(ctx, accountID, from, to)
}

func (s *Store) SearchTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return s.view().SearchTransactions(ctx, filter)
}

func (s *Store) GetDailyAggregate(ctx context.Context, accountID string, date time.Time) (domain.DailyTransferAggregate, error) {
	return s.view().GetDailyAggregate(ctx, accountID, date)
}

func (s *Store) GetLoan(ctx context.Context, id string) (domain.Loan, error) {
	return s.view().GetLoan(ctx, id)
}

func (s *Store) ListLoansByOwner(ctx context.Context, ownerID string) ([]domain.Loan, error) {
	return s.view().ListLoansByOwner(ctx, ownerID)
}

func (s *Store) ListEMIPayments(ctx context.Context, loanID string) ([]domain.LoanEMIPayment, error) {
	return s.view().ListEMIPayments(ctx, loanID)
}

func (s *Store) GetOwner(ctx context.Context, id string) (domain.Owner, error) {
	return s.view().GetOwner(ctx, id)
}

func (s *Store) GetKYCDocument(ctx context.Context, id string) (domain.KYCDocument, error) {
	return s.view().GetKYCDocument(ctx, id)
}

func (s *Store) ListKYCDocuments(ctx context.Context, ownerID string) ([]domain.KYCDocument, error) {
	return s.view().ListKYCDocuments(ctx, ownerID)
}

type rowLocks struct {
	mu   sync.Mutex
	rows map[string]*rowLock
}

type rowLock struct {
	mu   sync.Mutex
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{rows: make(map[string]*rowLock)}
}

func (l *rowLocks) acquire(key string) {
	l.mu.Lock()
	row, ok := l.rows[key]
	if !ok {
		row = &rowLock{}
		l.rows[key] = row
	}
	row.refs++
	l.mu.Unlock()

	row.mu.Lock()
}

func (l *rowLocks) release(key string) {
	l.mu.Lock()
	row := l.rows[key]
	row.refs--
	if row.refs == 0 {
		delete(l.rows, key)
	}
	l.mu.Unlock()

	row.mu.Unlock()
}
