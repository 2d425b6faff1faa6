package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vjranagit/graphcalc/pkg/auth"
	"github.com/vjranagit/graphcalc/pkg/equation"
	"github.com/vjranagit/graphcalc/pkg/render"
	"github.com/vjranagit/graphcalc/pkg/storage"
	"github.com/vjranagit/graphcalc/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Sampling SamplingConfig `yaml:"sampling"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr string        `yaml:"listen_addr"`
	Timeout    time.Duration `yaml:"timeout"`
}

// StorageConfig holds storage and cache configuration
type StorageConfig struct {
	Path             string        `yaml:"path"`
	CompressionLevel int           `yaml:"compression_level"`
	CacheCapacity    int           `yaml:"cache_capacity"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
}

// AuthConfig holds token and password settings
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// SamplingConfig holds the default sweep and render parallelism
type SamplingConfig struct {
	XMin      float64 `yaml:"x_min"`
	XMax      float64 `yaml:"x_max"`
	Step      float64 `yaml:"step"`
	ThetaStep float64 `yaml:"theta_step"`
	Workers   int     `yaml:"workers"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":5000"),
			Timeout:    getEnvDuration("SERVER_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Path:             getEnv("STORAGE_PATH", "./data"),
			CompressionLevel: getEnvInt("COMPRESSION_LEVEL", 2),
			CacheCapacity:    getEnvInt("CACHE_CAPACITY", 1024),
			CacheTTL:         getEnvDuration("CACHE_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			TokenTTL:   getEnvDuration("TOKEN_TTL", 24*time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Sampling: SamplingConfig{
			XMin:      getEnvFloat("SAMPLE_X_MIN", equation.DefaultDomain.Min),
			XMax:      getEnvFloat("SAMPLE_X_MAX", equation.DefaultDomain.Max),
			Step:      getEnvFloat("SAMPLE_STEP", equation.DefaultStep),
			ThetaStep: getEnvFloat("SAMPLE_THETA_STEP", equation.DefaultThetaStep),
			Workers:   getEnvInt("RENDER_WORKERS", 4),
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ToStorageConfig converts to storage.Config
func (c *Config) ToStorageConfig() *storage.Config {
	return &storage.Config{
		Path:             c.Storage.Path,
		CompressionLevel: c.Storage.CompressionLevel,
	}
}

// ToAuthConfig converts to auth.Config
func (c *Config) ToAuthConfig() auth.Config {
	return auth.Config{
		Secret:     []byte(c.Auth.JWTSecret),
		TokenTTL:   c.Auth.TokenTTL,
		BcryptCost: c.Auth.BcryptCost,
	}
}

// ToRenderConfig converts to render.Config
func (c *Config) ToRenderConfig() render.Config {
	return render.Config{
		Options: equation.Options{
			Domain:    types.Range{Min: c.Sampling.XMin, Max: c.Sampling.XMax},
			Step:      c.Sampling.Step,
			ThetaStep: c.Sampling.ThetaStep,
		},
		Workers:          c.Sampling.Workers,
		CacheCapacity:    c.Storage.CacheCapacity,
		CacheTTL:         c.Storage.CacheTTL,
		CompressionLevel: c.Storage.CompressionLevel,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	if c.Storage.CacheCapacity < 1 {
		return fmt.Errorf("cache capacity must be at least 1")
	}

	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("jwt secret must be at least 16 bytes")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31")
	}

	if c.Sampling.Workers < 1 {
		return fmt.Errorf("render workers must be at least 1")
	}

	opts := c.ToRenderConfig().Options
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
