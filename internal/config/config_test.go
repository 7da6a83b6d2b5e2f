package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MemoryStoreDefaults(t *testing.T) {
	t.Setenv("USER_STORE", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.UserStore)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "profile_session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoadConfig_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("USER_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadConfig_InvalidSessionTTL(t *testing.T) {
	t.Setenv("USER_STORE", "memory")
	t.Setenv("SESSION_TTL", "tomorrow")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfig_ValidateUnknownStore(t *testing.T) {
	cfg := &Config{UserStore: "mongo", RedisURL: "redis://localhost:6379", Session: SessionConfig{TTL: time.Hour}}
	assert.Error(t, cfg.Validate())
}
