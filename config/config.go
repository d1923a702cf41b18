package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

// Environment variable names.
const (
	EnvDSN         = "LOANLEDGER_DSN"
	EnvDBAdapter   = "LOANLEDGER_DB_ADAPTER"
	EnvLogLevel    = "LOANLEDGER_LOG_LEVEL"
	EnvGraceDays   = "LOANLEDGER_GRACE_DAYS"
	EnvDailyRate   = "LOANLEDGER_DAILY_RATE"
	EnvTablePrefix = "LOANLEDGER_TABLE_PREFIX"
)

// Supported values of LOANLEDGER_DB_ADAPTER.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLX    = "sqlx.db"
)

const (
	defaultLogLevel  = "info"
	defaultGraceDays = "14"
	defaultDailyRate = "1.00"
)

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownLogLevel = errors.New("unknown log level")
)

// Config is the runtime configuration of the loan ledger.
type Config struct {
	DSN             string `validate:"required"`
	DBAdapter       string `validate:"oneof=pgx.pool sql.db sqlx.db"`
	LogLevel        slog.Level
	GracePeriodDays int `validate:"gte=0"`
	DailyRate       decimal.Decimal
	TablePrefix     string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads .env if present and then builds the Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on system environment variables")
	}

	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (Config, error) {
	logLevel, err := parseLogLevel(getEnv(EnvLogLevel, defaultLogLevel))
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	graceDays, err := strconv.Atoi(getEnv(EnvGraceDays, defaultGraceDays))
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	dailyRate, err := decimal.NewFromString(getEnv(EnvDailyRate, defaultDailyRate))
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	cfg := Config{
		DSN:             getEnv(EnvDSN, ""),
		DBAdapter:       strings.ToLower(getEnv(EnvDBAdapter, AdapterPGXPool)),
		LogLevel:        logLevel,
		GracePeriodDays: graceDays,
		DailyRate:       dailyRate,
		TablePrefix:     getEnv(EnvTablePrefix, ""),
	}

	if err = validate.Struct(cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	return cfg, nil
}

// FinePolicy builds the fine policy from the configured grace period and daily rate.
func (c Config) FinePolicy() (loanledger.FinePolicy, error) {
	return loanledger.BuildFinePolicy(c.GracePeriodDays, c.DailyRate)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Join(ErrUnknownLogLevel, err)
	}

	return level, nil
}

// getEnv returns the value of key, or fallback if it is not set.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return fallback
}
