package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "")

	cfg := LoadConfig()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.False(t, cfg.Orders.StrictStatusTransitions)
	assert.Equal(t, "60-M", cfg.RateLimit.Rate)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:dev.db")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")
	t.Setenv("REDIS_ENABLED", "false")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:dev.db", cfg.DB.GetDSN())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.True(t, cfg.Orders.StrictStatusTransitions)
	assert.False(t, cfg.Redis.Enabled)
}

func TestRedisAddr(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_POOL_SIZE", "4")

	cfg := LoadConfig()

	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, 4, cfg.Redis.PoolSize)
}

func TestGetDSNFromParts(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "inv", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=inv sslmode=disable", c.GetDSN())
}
