package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/gateway")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("VAULT_PASSPHRASE", "local-secret")
	t.Setenv("OPERATOR_JWT_SECRET", "operator-secret")
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("API_KEY_CACHE_TTL_SECONDS", "120")

	cfg, err := LoadConfig("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ServiceID != "onerouter-gateway" {
		t.Fatalf("service id = %q", cfg.ServiceID)
	}
	if cfg.HTTPPort != 9191 {
		t.Fatalf("http port = %d, want 9191", cfg.HTTPPort)
	}
	if cfg.DefaultProvider != "razorpay" {
		t.Fatalf("default provider = %q", cfg.DefaultProvider)
	}
	if cfg.APIKeyCacheTTL != 2*time.Minute {
		t.Fatalf("api key cache ttl = %s", cfg.APIKeyCacheTTL)
	}
	if cfg.ForwardQueueSize != 256 || cfg.ForwardWorkers != 4 {
		t.Fatalf("forward config = %d/%d", cfg.ForwardQueueSize, cfg.ForwardWorkers)
	}
}

func TestLoadConfigFileValuesApplyUnderEnv(t *testing.T) {
	t.Setenv("VAULT_PASSPHRASE", "local-secret")
	t.Setenv("OPERATOR_JWT_SECRET", "operator-secret")
	t.Setenv("DB_URL", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("REDIS_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
service:
  id: gateway-staging
  http_port: 8090
dependencies:
  postgres_url: postgres://db:5432/gateway
  redis_url: redis://cache:6379/0
providers:
  default: paypal
forward:
  queue_size: 64
  workers: 2
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServiceID != "gateway-staging" || cfg.HTTPPort != 8090 {
		t.Fatalf("service = %q port = %d", cfg.ServiceID, cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "postgres://db:5432/gateway" {
		t.Fatalf("database url = %q", cfg.DatabaseURL)
	}
	if cfg.DefaultProvider != "paypal" {
		t.Fatalf("default provider = %q", cfg.DefaultProvider)
	}
	if cfg.ForwardQueueSize != 64 || cfg.ForwardWorkers != 2 {
		t.Fatalf("forward config = %d/%d", cfg.ForwardQueueSize, cfg.ForwardWorkers)
	}
}

func TestLoadConfigRejectsMissingSecrets(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/gateway")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("VAULT_PASSPHRASE", "")
	t.Setenv("OPERATOR_JWT_SECRET", "operator-secret")

	if _, err := LoadConfig("does-not-exist.yaml"); err == nil {
		t.Fatal("expected error when VAULT_PASSPHRASE is missing")
	}
}
