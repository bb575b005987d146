package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/postgres"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=jade_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultChannelID = "JadeApp"
const defaultChannelKey = "JadeChannelKey001"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	DatabaseDSN    string `mapstructure:"DATABASE_DSN"`
	StoreDriver    string `mapstructure:"STORE_DRIVER"`
	MigrationsDir  string `mapstructure:"MIGRATIONS_DIR"`
	ServerAddress  string `mapstructure:"SERVER_ADDRESS"`
	ChannelID      string `mapstructure:"CHANNEL_ID"`
	ChannelKey     string `mapstructure:"CHANNEL_KEY"`
	ChannelKeyHash string `mapstructure:"CHANNEL_KEY_HASH"`
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	AuditExchange  string `mapstructure:"AUDIT_EXCHANGE"`
	TxMaxRetries   int    `mapstructure:"TX_MAX_RETRIES"`
	EMITolerance   string `mapstructure:"EMI_TOLERANCE"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`
}

var configKeys = []string{
	"DATABASE_DSN",
	"STORE_DRIVER",
	"MIGRATIONS_DIR",
	"SERVER_ADDRESS",
	"CHANNEL_ID",
	"CHANNEL_KEY",
	"CHANNEL_KEY_HASH",
	"RABBITMQ_URL",
	"AUDIT_EXCHANGE",
	"TX_MAX_RETRIES",
	"EMI_TOLERANCE",
	"LOG_LEVEL",
	"DB_MAX_OPEN_CONNS",
	"DB_MAX_IDLE_CONNS",
}

// Load reads configuration from the environment, with an optional .env file
// in the working directory.
func Load() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("DATABASE_DSN", defaultConnectionString)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MIGRATIONS_DIR", "src/migrations")
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("CHANNEL_ID", defaultChannelID)
	v.SetDefault("CHANNEL_KEY", defaultChannelKey)
	v.SetDefault("CHANNEL_KEY_HASH", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("AUDIT_EXCHANGE", "jade.audit")
	v.SetDefault("TX_MAX_RETRIES", 3)
	v.SetDefault("EMI_TOLERANCE", "1.00")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_OPEN_CONNS", 30)
	v.SetDefault("DB_MAX_IDLE_CONNS", 20)

	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DatabaseDSN = normalizeConnectionString(strings.TrimSpace(cfg.DatabaseDSN))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.ChannelID = strings.TrimSpace(cfg.ChannelID)
	cfg.ChannelKey = strings.TrimSpace(cfg.ChannelKey)
	cfg.ChannelKeyHash = strings.TrimSpace(cfg.ChannelKeyHash)
	cfg.RabbitMQURL = strings.TrimSpace(cfg.RabbitMQURL)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var errs []string

	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be one of %s, %s", StoreDriverPostgres, StoreDriverMemory))
	}
	if c.TxMaxRetries < 1 {
		errs = append(errs, "TX_MAX_RETRIES must be at least 1")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, "LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.DBMaxOpenConns < 1 {
		errs = append(errs, "DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if _, err := c.Tolerance(); err != nil {
		errs = append(errs, "EMI_TOLERANCE must be a non-negative decimal with at most 2 fractional digits")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Tolerance is the absolute EMI amount tolerance for non-final installments.
func (c Config) Tolerance() (decimal.Decimal, error) {
	tolerance, err := decimal.NewFromString(strings.TrimSpace(c.EMITolerance))
	if err != nil {
		return decimal.Zero, err
	}
	if tolerance.Sign() < 0 || !tolerance.Equal(tolerance.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("invalid tolerance %s", tolerance)
	}
	return tolerance, nil
}

// Pool is the database pool sizing taken from DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS.
func (c Config) Pool() postgres.PoolConfig {
	pool := postgres.DefaultPoolConfig()
	pool.MaxOpen = c.DBMaxOpenConns
	pool.MaxIdle = c.DBMaxIdleConns
	return pool
}

// Level is the parsed LOG_LEVEL. Load has already validated it.
func (c Config) Level() logger.Level {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

func normalizeConnectionString(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
