package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jade-bank/core-ledger/src/internal/logger"
)

// migrationLockKey serializes migrators across server replicas and ledgerctl.
const migrationLockKey int64 = 0x4a414445

var ErrMigrationDrift = errors.New("applied migration was modified")

type migration struct {
	version  string
	checksum string
	body     string
}

type MigrationStatus struct {
	Version string
	Applied bool
}

// RunMigrations applies every pending *.sql file in migrationsDir in file name order,
// one transaction per file, under a session advisory lock. It refuses to run when an
// applied file no longer matches the checksum recorded for it.
func RunMigrations(ctx context.Context, db *sql.DB, migrationsDir string) ([]string, error) {
	migrations, err := loadMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve migration connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey); err != nil {
			logger.Warn("migration lock release failed", logger.Fields{"error": err.Error()})
		}
	}()

	if err := ensureSchemaMigrationsTable(ctx, conn); err != nil {
		return nil, err
	}
	recorded, err := appliedChecksums(ctx, conn)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(migrations))
	for _, m := range migrations {
		if checksum, ok := recorded[m.version]; ok {
			if checksum != "" && checksum != m.checksum {
				return applied, fmt.Errorf("%w: %s", ErrMigrationDrift, m.version)
			}
			continue
		}

		if err := applyMigration(ctx, conn, m); err != nil {
			return applied, err
		}
		logger.Info("migration applied", logger.Fields{"version": m.version, "checksum": m.checksum[:12]})
		applied = append(applied, m.version)
	}

	return applied, nil
}

// PendingMigrations reports every file in migrationsDir and whether it has been applied.
func PendingMigrations(ctx context.Context, db *sql.DB, migrationsDir string) ([]MigrationStatus, error) {
	migrations, err := loadMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve migration connection: %w", err)
	}
	defer conn.Close()

	if err := ensureSchemaMigrationsTable(ctx, conn); err != nil {
		return nil, err
	}
	recorded, err := appliedChecksums(ctx, conn)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		_, ok := recorded[m.version]
		statuses = append(statuses, MigrationStatus{Version: m.version, Applied: ok})
	}
	return statuses, nil
}

func applyMigration(ctx context.Context, conn *sql.Conn, m migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for migration %q: %w", m.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.body); err != nil {
		return fmt.Errorf("execute migration %q: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations(version, checksum) VALUES ($1, $2)`, m.version, m.checksum); err != nil {
		return fmt.Errorf("record migration %q: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %q: %w", m.version, err)
	}
	return nil
}

func ensureSchemaMigrationsTable(ctx context.Context, conn *sql.Conn) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	checksum TEXT NOT NULL DEFAULT '',
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE schema_migrations ADD COLUMN IF NOT EXISTS checksum TEXT NOT NULL DEFAULT ''`

	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}
	return nil
}

func appliedChecksums(ctx context.Context, conn *sql.Conn) (map[string]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	recorded := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		recorded[version] = checksum
	}
	return recorded, rows.Err()
}

func loadMigrations(migrationsDir string) ([]migration, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory %q: %w", migrationsDir, err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".sql") {
			continue
		}
		body, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(body)
		migrations = append(migrations, migration{
			version:  entry.Name(),
			checksum: hex.EncodeToString(sum[:]),
			body:     string(body),
		})
	}

	slices.SortFunc(migrations, func(a, b migration) int { return strings.Compare(a.version, b.version) })
	return migrations, nil
}
