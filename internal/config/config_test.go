package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":8081")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("SAMPLE_STEP", "0.5")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RENDER_WORKERS", "not-a-number")

	cfg := DefaultConfig()

	assert.Equal(t, ":8081", cfg.Server.ListenAddr)
	assert.Equal(t, "0123456789abcdef0123", cfg.Auth.JWTSecret)
	assert.Equal(t, 0.5, cfg.Sampling.Step)
	assert.Equal(t, 90*time.Second, cfg.Storage.CacheTTL)
	assert.Equal(t, 4, cfg.Sampling.Workers)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Auth.JWTSecret = "0123456789abcdef"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"missing secret":    func(c *Config) { c.Auth.JWTSecret = "" },
		"compression level": func(c *Config) { c.Storage.CompressionLevel = 9 },
		"storage path":      func(c *Config) { c.Storage.Path = "" },
		"listen addr":       func(c *Config) { c.Server.ListenAddr = "" },
		"server timeout":    func(c *Config) { c.Server.Timeout = 0 },
		"bcrypt cost":       func(c *Config) { c.Auth.BcryptCost = 2 },
		"workers":           func(c *Config) { c.Sampling.Workers = 0 },
		"domain":            func(c *Config) { c.Sampling.XMin, c.Sampling.XMax = 3, -3 },
		"step":              func(c *Config) { c.Sampling.Step = -1 },
		"cache capacity":    func(c *Config) { c.Storage.CacheCapacity = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphcalc.yaml")
	data := []byte(`
server:
  listen_addr: ":7000"
auth:
  jwt_secret: "a-very-long-test-secret"
  token_ttl: 2h
sampling:
  x_min: -5
  x_max: 5
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, -5.0, cfg.Sampling.XMin)
	assert.Equal(t, 5.0, cfg.Sampling.XMax)
	// untouched keys keep their defaults
	assert.Equal(t, 0.1, cfg.Sampling.Step)
	require.NoError(t, cfg.Validate())

	rc := cfg.ToRenderConfig()
	assert.Equal(t, -5.0, rc.Options.Domain.Min)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
