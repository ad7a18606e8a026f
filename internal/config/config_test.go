package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with required secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 1, cfg.Cache.Threshold)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, 72*time.Hour, cfg.JWT.TTL)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
		assert.Zero(t, cfg.Server.RateLimit)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("CACHE_THRESHOLD", "5")
		t.Setenv("CACHE_TTL", "10m")
		t.Setenv("SERVER_ALLOW_ORIGINS", "https://a.example,https://b.example")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "db.internal", cfg.DB.Host)
		assert.Equal(t, 5, cfg.Cache.Threshold)
		assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server: ServerConfig{Port: 8080},
		JWT:    JWTConfig{Secret: "x", TTL: time.Hour},
		Cache:  CacheConfig{Threshold: 1, TTL: time.Hour},
	}
	assert.NoError(t, valid.Validate())

	badPort := valid
	badPort.Server.Port = 70000
	assert.Error(t, badPort.Validate())

	badThreshold := valid
	badThreshold.Cache.Threshold = 0
	assert.Error(t, badThreshold.Validate())

	noBurst := valid
	noBurst.Server.RateLimit = 5
	assert.Error(t, noBurst.Validate())
	noBurst.Server.RateBurst = 10
	assert.NoError(t, noBurst.Validate())
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", d.DSN())
}
