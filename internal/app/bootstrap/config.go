package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the gateway.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	VaultPassphrase   string
	OperatorJWTSecret string

	DefaultProvider string

	RazorpayBaseURL  string
	PayPalSandboxURL string
	PayPalLiveURL    string

	MaxDBConns         int32
	APIKeyCacheTTL     time.Duration
	CredentialCacheTTL time.Duration
	IdempotencyLockTTL time.Duration
	ProviderTimeout    time.Duration

	ForwardQueueSize int
	ForwardWorkers   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Providers struct {
		Default          string `yaml:"default"`
		RazorpayBaseURL  string `yaml:"razorpay_base_url"`
		PayPalSandboxURL string `yaml:"paypal_sandbox_url"`
		PayPalLiveURL    string `yaml:"paypal_live_url"`
	} `yaml:"providers"`
	Forward struct {
		QueueSize int `yaml:"queue_size"`
		Workers   int `yaml:"workers"`
	} `yaml:"forward"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "onerouter-gateway",
		HTTPPort:           8080,
		DefaultProvider:    "razorpay",
		MaxDBConns:         20,
		APIKeyCacheTTL:     5 * time.Minute,
		CredentialCacheTTL: 10 * time.Minute,
		IdempotencyLockTTL: 30 * time.Second,
		ProviderTimeout:    30 * time.Second,
		ForwardQueueSize:   256,
		ForwardWorkers:     4,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Providers.Default != "" {
			cfg.DefaultProvider = f.Providers.Default
		}
		if f.Providers.RazorpayBaseURL != "" {
			cfg.RazorpayBaseURL = f.Providers.RazorpayBaseURL
		}
		if f.Providers.PayPalSandboxURL != "" {
			cfg.PayPalSandboxURL = f.Providers.PayPalSandboxURL
		}
		if f.Providers.PayPalLiveURL != "" {
			cfg.PayPalLiveURL = f.Providers.PayPalLiveURL
		}
		if f.Forward.QueueSize > 0 {
			cfg.ForwardQueueSize = f.Forward.QueueSize
		}
		if f.Forward.Workers > 0 {
			cfg.ForwardWorkers = f.Forward.Workers
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.VaultPassphrase = envOrDefault("VAULT_PASSPHRASE", cfg.VaultPassphrase)
	cfg.OperatorJWTSecret = envOrDefault("OPERATOR_JWT_SECRET", cfg.OperatorJWTSecret)
	cfg.DefaultProvider = envOrDefault("DEFAULT_PROVIDER", cfg.DefaultProvider)
	cfg.RazorpayBaseURL = envOrDefault("RAZORPAY_BASE_URL", cfg.RazorpayBaseURL)
	cfg.PayPalSandboxURL = envOrDefault("PAYPAL_SANDBOX_BASE_URL", cfg.PayPalSandboxURL)
	cfg.PayPalLiveURL = envOrDefault("PAYPAL_LIVE_BASE_URL", cfg.PayPalLiveURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.ForwardQueueSize = envInt("FORWARD_QUEUE_SIZE", cfg.ForwardQueueSize)
	cfg.ForwardWorkers = envInt("FORWARD_WORKERS", cfg.ForwardWorkers)

	cfg.APIKeyCacheTTL = time.Duration(envInt("API_KEY_CACHE_TTL_SECONDS", int(cfg.APIKeyCacheTTL.Seconds()))) * time.Second
	cfg.CredentialCacheTTL = time.Duration(envInt("CREDENTIAL_CACHE_TTL_SECONDS", int(cfg.CredentialCacheTTL.Seconds()))) * time.Second
	cfg.IdempotencyLockTTL = time.Duration(envInt("IDEMPOTENCY_LOCK_TTL_SECONDS", int(cfg.IdempotencyLockTTL.Seconds()))) * time.Second
	cfg.ProviderTimeout = time.Duration(envInt("PROVIDER_TIMEOUT_SECONDS", int(cfg.ProviderTimeout.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.VaultPassphrase == "" {
		return Config{}, fmt.Errorf("missing VAULT_PASSPHRASE")
	}
	if cfg.OperatorJWTSecret == "" {
		return Config{}, fmt.Errorf("missing OPERATOR_JWT_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
