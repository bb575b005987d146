package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/lib/pq"
)

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*Tx)(nil)

const lockTimeout = "5s"

// SQLSTATE codes that a fresh attempt of the same unit of work can resolve.
var retryableCodes = map[pq.ErrorCode]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store runs units of work on Postgres. Row locks are SELECT ... FOR UPDATE taken in
// ascending id order; a lock wait longer than lockTimeout fails and is retried.
type Store struct {
	reader
	db         *sql.DB
	maxRetries int
	backoff    time.Duration
}

func NewStore(db *sql.DB, maxRetries int) *Store {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Store{
		reader:     reader{q: db},
		db:         db,
		maxRetries: maxRetries,
		backoff:    20 * time.Millisecond,
	}
}

// reader holds the read queries. Store runs them on the pool, Tx inside its transaction.
type reader struct {
	q querier
}

// Tx is one unit of work on a *sql.Tx.
type Tx struct {
	reader
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		lastErr = err
		logger.Warn("postgres store unit of work conflict", logger.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}
	}

	return &domain.ConcurrencyConflictError{Attempts: s.maxRetries, Err: lastErr}
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if _, err = sqlTx.ExecContext(ctx, "SET LOCAL lock_timeout = '"+lockTimeout+"'"); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	if err = fn(ctx, &Tx{reader{q: sqlTx}}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	_, ok := retryableCodes[pqErr.Code]
	return ok
}

// validID keeps malformed ids away from uuid columns; they can never match a row.
func validID(id string) bool {
	_, ok := canonicalID(id)
	return ok
}

func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func execRequiredRows(ctx context.Context, q querier, query string, args ...any) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute statement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}
