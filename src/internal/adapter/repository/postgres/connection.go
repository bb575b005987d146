package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PoolConfig sizes the connection pool. Every unit of work holds one connection
// for its whole transaction, so MaxOpen bounds concurrent ledger writes.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpen:     30,
		MaxIdle:     20,
		MaxIdleTime: 5 * time.Minute,
		MaxLifetime: 15 * time.Minute,
	}
}

func (p PoolConfig) apply(db *sql.DB) {
	defaults := DefaultPoolConfig()
	if p.MaxOpen <= 0 {
		p.MaxOpen = defaults.MaxOpen
	}
	if p.MaxIdle <= 0 || p.MaxIdle > p.MaxOpen {
		p.MaxIdle = min(defaults.MaxIdle, p.MaxOpen)
	}
	if p.MaxIdleTime <= 0 {
		p.MaxIdleTime = defaults.MaxIdleTime
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = defaults.MaxLifetime
	}

	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
	db.SetConnMaxLifetime(p.MaxLifetime)
}

// Open connects with lib/pq, sizes the pool and pings before returning.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	pool.apply(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
