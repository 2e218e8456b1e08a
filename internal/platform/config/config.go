package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ServiceUsers        = "user-service"
	ServicePosts        = "post-service"
	ServiceInteractions = "interaction-service"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string

	DatabaseDriver string
	PostgresDSN    string
	SQLitePath     string
	AutoMigrate    bool

	MessagingDriver     string
	KafkaBrokers        []string
	ConsumerGroup       string
	ConsumerWorkers     int
	ConsumerMaxAttempts int
	ConsumerRetryWait   time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxRetention    time.Duration

	DedupTTL  time.Duration
	RedisAddr string

	LogLevel  string
	LogFormat string
}

// Load reads the process environment, after merging an optional .env file
// (ENV_FILE, default ".env"). Variables already set win over the file.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		ServiceName: strings.TrimSpace(v.GetString("SERVICE_NAME")),
		HTTPPort:    v.GetString("HTTP_PORT"),

		DatabaseDriver: strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER"))),
		PostgresDSN:    v.GetString("POSTGRES_DSN"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		AutoMigrate:    v.GetBool("AUTO_MIGRATE"),

		MessagingDriver:     strings.ToLower(strings.TrimSpace(v.GetString("MESSAGING_DRIVER"))),
		KafkaBrokers:        splitList(v.GetString("KAFKA_BROKERS")),
		ConsumerGroup:       strings.TrimSpace(v.GetString("CONSUMER_GROUP")),
		ConsumerWorkers:     v.GetInt("CONSUMER_WORKERS"),
		ConsumerMaxAttempts: v.GetInt("CONSUMER_MAX_ATTEMPTS"),
		ConsumerRetryWait:   v.GetDuration("CONSUMER_RETRY_WAIT"),

		OutboxPollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
		OutboxBatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
		OutboxRetention:    v.GetDuration("OUTBOX_RETENTION"),

		DedupTTL:  v.GetDuration("DEDUP_TTL"),
		RedisAddr: strings.TrimSpace(v.GetString("REDIS_ADDR")),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = cfg.ServiceName + "-cg"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", ServicePosts)
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "inkwell.db")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("MESSAGING_DRIVER", "kafka")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("CONSUMER_WORKERS", 1)
	v.SetDefault("CONSUMER_MAX_ATTEMPTS", 3)
	v.SetDefault("CONSUMER_RETRY_WAIT", time.Second)
	v.SetDefault("OUTBOX_POLL_INTERVAL", 2*time.Second)
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_RETENTION", 72*time.Hour)
	v.SetDefault("DEDUP_TTL", 7*24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c Config) Validate() error {
	switch c.ServiceName {
	case ServiceUsers, ServicePosts, ServiceInteractions:
	default:
		return fmt.Errorf("SERVICE_NAME must be one of %s, %s, %s; got %q",
			ServiceUsers, ServicePosts, ServiceInteractions, c.ServiceName)
	}
	switch c.DatabaseDriver {
	case "postgres":
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required")
		}
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite; got %q", c.DatabaseDriver)
	}
	switch c.MessagingDriver {
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
	case "memory":
	default:
		return fmt.Errorf("MESSAGING_DRIVER must be kafka or memory; got %q", c.MessagingDriver)
	}
	if c.ConsumerWorkers <= 0 {
		return errors.New("CONSUMER_WORKERS must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var items []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
