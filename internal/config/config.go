// payment-requests/internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPAddr string
	// Empty disables the gRPC listener
	GRPCAddr string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	ExpiryWindow time.Duration
	// Zero disables the periodic expiry sweep
	SweepInterval time.Duration

	RatesSeedFile string
	// Empty disables the rate cache
	RedisAddr    string
	RateCacheTTL time.Duration

	// Empty disables event publishing
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	// Metrics listener of the event worker
	WorkerMetricsAddr string

	LogLevel        slog.Level
	ShutdownTimeout time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	loadDotEnv()
	return FromEnv()
}

// LoadWorker is Load for the event worker, which needs neither a store
// nor an expiry window.
func LoadWorker() (*Config, error) {
	loadDotEnv()
	return WorkerFromEnv()
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on System Env Variables")
	}
}

// FromEnv builds the configuration from the environment only and validates it.
func FromEnv() (*Config, error) {
	c, err := parse()
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WorkerFromEnv builds the configuration and checks only the settings the
// event worker reads.
func WorkerFromEnv() (*Config, error) {
	c, err := parse()
	if err != nil {
		return nil, err
	}
	if err := c.ValidateWorker(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse() (*Config, error) {
	c := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:      getenv("GRPC_ADDR", ":9091"),
		StoreDriver:   getenv("STORE_DRIVER", DriverSQLite),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		SQLitePath:    getenv("SQLITE_PATH", "payments.db"),
		RatesSeedFile: getenv("RATES_SEED_FILE", ""),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		KafkaBrokers:  splitList(getenv("KAFKA_BROKERS", "")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "payment-requests.events"),
		KafkaGroup:    getenv("KAFKA_GROUP", "payments-worker"),

		WorkerMetricsAddr: getenv("WORKER_METRICS_ADDR", ":9102"),
	}

	var errs []error
	c.ExpiryWindow = duration("EXPIRY_WINDOW", "", &errs)
	c.SweepInterval = duration("SWEEP_INTERVAL", "0s", &errs)
	c.RateCacheTTL = duration("RATE_CACHE_TTL", "1m", &errs)
	c.ShutdownTimeout = duration("SHUTDOWN_TIMEOUT", "10s", &errs)
	if err := c.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of postgres, sqlite, memory", c.StoreDriver))
	}
	if c.ExpiryWindow <= 0 {
		errs = append(errs, errors.New("EXPIRY_WINDOW is required and must be positive"))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must not be negative"))
	}
	if c.RedisAddr != "" && c.RateCacheTTL <= 0 {
		errs = append(errs, errors.New("RATE_CACHE_TTL must be positive when REDIS_ADDR is set"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateWorker() error {
	var errs []error
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC must not be empty"))
	}
	if c.KafkaGroup == "" {
		errs = append(errs, errors.New("KAFKA_GROUP must not be empty"))
	}
	if c.WorkerMetricsAddr == "" {
		errs = append(errs, errors.New("WORKER_METRICS_ADDR must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func duration(key, def string, errs *[]error) time.Duration {
	raw := getenv(key, def)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
