package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Hour, cfg.StaleOrderThreshold)
	assert.Equal(t, 15*time.Minute, cfg.StaleOrderInterval)
	assert.Equal(t, 5*time.Minute, cfg.ReminderLead)
	assert.Equal(t, time.Minute, cfg.ReminderWindow)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STALE_ORDER_THRESHOLD", "1h")
	t.Setenv("ACTIVITY_FLUSH_BATCH", "50")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("MYSQL_HOST", "db")
	t.Setenv("MYSQL_PASSWORD", "secret")

	cfg := LoadConfig()

	assert.Equal(t, time.Hour, cfg.StaleOrderThreshold)
	assert.Equal(t, 50, cfg.ActivityBatch)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "delivery:secret@tcp(db:3306)/delivery?charset=utf8mb4&parseTime=True&loc=Local", cfg.MySQLDSN())
}

func TestLoadConfig_SecretFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt")
	require.NoError(t, os.WriteFile(path, []byte("file-secret\n"), 0o600))
	t.Setenv("JWT_SECRET_FILE", path)
	t.Setenv("JWT_SECRET", "env-secret")

	cfg := LoadConfig()
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := LoadConfig()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "x"
	cfg.StaleOrderThreshold = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsBadIntervals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero stale interval", func(c *Config) { c.StaleOrderInterval = 0 }},
		{"negative reminder interval", func(c *Config) { c.ReminderInterval = -time.Second }},
		{"zero flush interval", func(c *Config) { c.ActivityFlushInterval = 0 }},
		{"zero attention age", func(c *Config) { c.AttentionOrderAge = 0 }},
		{"zero cache ttl", func(c *Config) { c.MenuCacheTTL = 0 }},
		{"negative reminder lead", func(c *Config) { c.ReminderLead = -time.Minute }},
		{"zero activity batch", func(c *Config) { c.ActivityBatch = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "x")
			cfg := LoadConfig()
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
