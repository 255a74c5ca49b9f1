package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assertions := assert.New(t)
		t.Setenv("EXPIRY_WINDOW", "15m")

		c, err := FromEnv()
		require.NoError(t, err)
		assertions.Equal(":8080", c.HTTPAddr)
		assertions.Equal(":9091", c.GRPCAddr)
		assertions.Equal(DriverSQLite, c.StoreDriver)
		assertions.Equal("payments.db", c.SQLitePath)
		assertions.Equal(15*time.Minute, c.ExpiryWindow)
		assertions.Zero(c.SweepInterval)
		assertions.Equal(time.Minute, c.RateCacheTTL)
		assertions.Empty(c.KafkaBrokers)
		assertions.Equal("payment-requests.events", c.KafkaTopic)
		assertions.Equal("payments-worker", c.KafkaGroup)
		assertions.Equal(slog.LevelInfo, c.LogLevel)
		assertions.Equal(10*time.Second, c.ShutdownTimeout)
	})
	t.Run("Overrides", func(t *testing.T) {
		assertions := assert.New(t)
		t.Setenv("EXPIRY_WINDOW", "1h")
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/payments")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
		t.Setenv("SWEEP_INTERVAL", "30s")
		t.Setenv("LOG_LEVEL", "debug")

		c, err := FromEnv()
		require.NoError(t, err)
		assertions.Equal(DriverPostgres, c.StoreDriver)
		assertions.Equal([]string{"kafka-1:9092", "kafka-2:9092"}, c.KafkaBrokers)
		assertions.Equal(30*time.Second, c.SweepInterval)
		assertions.Equal(slog.LevelDebug, c.LogLevel)
	})
	t.Run("Invalid", func(t *testing.T) {
		for name, env := range map[string]map[string]string{
			"MissingExpiryWindow":  {},
			"NegativeExpiryWindow": {"EXPIRY_WINDOW": "-1m"},
			"BadDuration":          {"EXPIRY_WINDOW": "ten minutes"},
			"UnknownDriver":        {"EXPIRY_WINDOW": "1m", "STORE_DRIVER": "mysql"},
			"PostgresWithoutURL":   {"EXPIRY_WINDOW": "1m", "STORE_DRIVER": "postgres"},
			"BadLogLevel":          {"EXPIRY_WINDOW": "1m", "LOG_LEVEL": "chatty"},
			"NegativeSweep":        {"EXPIRY_WINDOW": "1m", "SWEEP_INTERVAL": "-5s"},
		} {
			t.Run(name, func(t *testing.T) {
				t.Setenv("EXPIRY_WINDOW", "")
				for k, v := range env {
					t.Setenv(k, v)
				}
				_, err := FromEnv()
				assert.Error(t, err)
			})
		}
	})
}

func TestWorkerFromEnv(t *testing.T) {
	t.Run("IgnoresStoreSettings", func(t *testing.T) {
		assertions := assert.New(t)
		t.Setenv("EXPIRY_WINDOW", "")
		t.Setenv("STORE_DRIVER", "mysql")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092")

		c, err := WorkerFromEnv()
		require.NoError(t, err)
		assertions.Equal([]string{"kafka-1:9092"}, c.KafkaBrokers)
		assertions.Equal("payments-worker", c.KafkaGroup)
		assertions.Equal(":9102", c.WorkerMetricsAddr)
		assertions.Zero(c.ExpiryWindow)

		_, err = FromEnv()
		assertions.Error(err)
	})
	t.Run("Invalid", func(t *testing.T) {
		for name, env := range map[string]map[string]string{
			"MissingBrokers":  {},
			"BadShutdown":     {"KAFKA_BROKERS": "kafka-1:9092", "SHUTDOWN_TIMEOUT": "-1s"},
			"BadLogLevel":     {"KAFKA_BROKERS": "kafka-1:9092", "LOG_LEVEL": "chatty"},
			"BadExpiryFormat": {"KAFKA_BROKERS": "kafka-1:9092", "EXPIRY_WINDOW": "soon"},
		} {
			t.Run(name, func(t *testing.T) {
				t.Setenv("KAFKA_BROKERS", "")
				for k, v := range env {
					t.Setenv(k, v)
				}
				_, err := WorkerFromEnv()
				assert.Error(t, err)
			})
		}
	})
}
