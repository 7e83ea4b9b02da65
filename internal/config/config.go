// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	GRPCPort        string // empty disables the gRPC health server
	AllowedOrigins  []string
	Store           StoreConfig
	JuiceShopURL    string
	HintCatalogPath string
	Refresh         RefreshConfig
	Remote          RemoteConfig
	Timeout         TimeoutConfig
}

// StoreConfig selects and configures the durable KV backend.
type StoreConfig struct {
	Backend        string
	DBPath         string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string
}

// RefreshConfig controls the challenge refresh worker.
type RefreshConfig struct {
	Interval        time.Duration
	AutoResetOnWipe bool
}

// RemoteConfig controls the best-effort remote reset notification.
type RemoteConfig struct {
	ResetURL string // empty disables the notification
}

// TimeoutConfig groups outbound and health timeouts.
type TimeoutConfig struct {
	Remote      time.Duration
	HealthCheck time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8090"),
		GRPCPort:       getEnv("GRPC_PORT", "8091"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		Store: StoreConfig{
			Backend:        strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
			DBPath:         getEnv("DB_PATH", "./data/coach.db"),
			RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  getEnv("REDIS_PASSWORD", ""),
			RedisDB:        getEnvInt("REDIS_DB", 0),
			RedisNamespace: getEnv("REDIS_NAMESPACE", "default"),
		},
		JuiceShopURL:    getEnv("JUICE_SHOP_URL", "http://localhost:3000"),
		HintCatalogPath: getEnv("HINT_CATALOG_PATH", ""),
		Refresh: RefreshConfig{
			Interval:        getEnvDuration("REFRESH_INTERVAL", 30*time.Second),
			AutoResetOnWipe: getEnvBool("AUTO_RESET_ON_WIPE", false),
		},
		Remote: RemoteConfig{
			ResetURL: getEnv("REMOTE_RESET_URL", ""),
		},
		Timeout: TimeoutConfig{
			Remote:      getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
			HealthCheck: 5 * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.GRPCPort != "" && c.GRPCPort == c.Port {
		return fmt.Errorf("GRPC_PORT must differ from PORT")
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty")
		}
		if c.Store.RedisNamespace == "" {
			return fmt.Errorf("REDIS_NAMESPACE cannot be empty")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of sqlite, redis, memory (got %q)", c.Store.Backend)
	}
	if c.JuiceShopURL == "" {
		return fmt.Errorf("JUICE_SHOP_URL cannot be empty")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}
	if c.Timeout.Remote <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
