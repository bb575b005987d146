package config

import (
	"strings"
	"testing"

	"github.com/jade-bank/core-ledger/src/internal/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("expected postgres driver by default, got %q", cfg.StoreDriver)
	}
	if cfg.TxMaxRetries != 3 {
		t.Fatalf("expected 3 retries, got %d", cfg.TxMaxRetries)
	}
	if !strings.Contains(cfg.DatabaseDSN, "dbname=jade_ledger_db") || !strings.Contains(cfg.DatabaseDSN, "sslmode=disable") {
		t.Fatalf("expected normalized dsn, got %q", cfg.DatabaseDSN)
	}
	if cfg.Level() != logger.LevelInfo {
		t.Fatalf("expected info level, got %s", cfg.Level())
	}
	if pool := cfg.Pool(); pool.MaxOpen != 30 || pool.MaxIdle != 20 {
		t.Fatalf("expected pool 30/20, got %d/%d", pool.MaxOpen, pool.MaxIdle)
	}
	tolerance, err := cfg.Tolerance()
	if err != nil || tolerance.StringFixed(2) != "1.00" {
		t.Fatalf("expected tolerance 1.00, got %v (%v)", tolerance, err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("TX_MAX_RETRIES", "5")
	t.Setenv("CHANNEL_ID", " ops ")
	t.Setenv("DATABASE_DSN", "Host=db;Port=6543;Database=ledger;Username=svc;Password=x;SSLMode=require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected env config to load, got %v", err)
	}

	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.TxMaxRetries != 5 {
		t.Fatalf("expected 5 retries, got %d", cfg.TxMaxRetries)
	}
	if cfg.ChannelID != "ops" {
		t.Fatalf("expected trimmed channel id, got %q", cfg.ChannelID)
	}
	want := "host=db port=6543 dbname=ledger user=svc password=x sslmode=require"
	if cfg.DatabaseDSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DatabaseDSN)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("TX_MAX_RETRIES", "0")
	t.Setenv("EMI_TOLERANCE", "0.001")
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "8")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, fragment := range []string{"STORE_DRIVER", "TX_MAX_RETRIES", "EMI_TOLERANCE", "LOG_LEVEL", "DB_MAX_IDLE_CONNS"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %s in error %q", fragment, err.Error())
		}
	}
}

func TestNormalizeConnectionStringKeepsURLs(t *testing.T) {
	raw := "postgres://svc:pw@db:5432/ledger?sslmode=disable"
	if got := normalizeConnectionString(raw); got != raw {
		t.Fatalf("expected url to pass through, got %q", got)
	}
}
