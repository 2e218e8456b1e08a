package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SERVICE_NAME", ServiceInteractions)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/inkwell")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, ,broker-2:9092 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "interaction-service-cg", cfg.ConsumerGroup)
	assert.Equal(t, 3, cfg.ConsumerMaxAttempts)
	assert.Equal(t, time.Second, cfg.ConsumerRetryWait)
	assert.Equal(t, 7*24*time.Hour, cfg.DedupTTL)
	assert.Equal(t, "kafka", cfg.MessagingDriver)
}

func TestLoadReadsEnvFileWithoutOverridingEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"SERVICE_NAME=user-service\nDATABASE_DRIVER=sqlite\nSQLITE_PATH=/tmp/users.db\nOUTBOX_POLL_INTERVAL=250ms\nCONSUMER_WORKERS=4\n",
	), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("CONSUMER_WORKERS", "2")
	t.Setenv("MESSAGING_DRIVER", "memory")
	t.Cleanup(func() {
		for _, key := range []string{"SERVICE_NAME", "DATABASE_DRIVER", "SQLITE_PATH", "OUTBOX_POLL_INTERVAL"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ServiceUsers, cfg.ServiceName)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 2, cfg.ConsumerWorkers)
}

func TestValidateRejectsUnknownService(t *testing.T) {
	cfg := Config{ServiceName: "gateway", DatabaseDriver: "sqlite", SQLitePath: "x.db", MessagingDriver: "memory", ConsumerWorkers: 1}
	assert.Error(t, cfg.Validate())

	cfg.ServiceName = ServicePosts
	assert.NoError(t, cfg.Validate())

	cfg.DatabaseDriver = "postgres"
	assert.Error(t, cfg.Validate())
}
