package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
auth:
  totp_issuer: Saphira Staging
limits:
  login_per_minute: 3
listing:
  cache_ttl: 90s
  max_limit: 50
filters:
  price_max: 2000
client:
  base_url: https://api.example.com
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Auth.TOTPIssuer != "Saphira Staging" {
		t.Fatalf("unexpected totp issuer: %s", cfg.Auth.TOTPIssuer)
	}
	if cfg.Limits.LoginPerMinute != 3 {
		t.Fatalf("unexpected login/min: %d", cfg.Limits.LoginPerMinute)
	}
	if cfg.Listing.CacheTTL.String() != "1m30s" {
		t.Fatalf("unexpected cache ttl: %s", cfg.Listing.CacheTTL)
	}
	if cfg.Listing.MaxLimit != 50 {
		t.Fatalf("unexpected max limit: %d", cfg.Listing.MaxLimit)
	}
	if b := cfg.Filters.Bounds(); b.PriceMax != 2000 || b.PriceMin != 100 {
		t.Fatalf("unexpected price bounds: %+v", b)
	}
	if cfg.Client.BaseURL != "https://api.example.com" {
		t.Fatalf("unexpected base url: %s", cfg.Client.BaseURL)
	}

	if cfg.Limits.LoginPer10Seconds != 5 {
		t.Fatalf("login_per_10sec default should stay 5")
	}
	if cfg.Listing.DefaultLimit != 24 {
		t.Fatalf("listing default_limit should stay 24")
	}
	if cfg.Auth.MinPassword != 6 {
		t.Fatalf("auth min_password default should stay 6")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Listing.CacheTTL.String() != "5m0s" {
		t.Fatalf("unexpected default cache ttl: %s", cfg.Listing.CacheTTL)
	}
	b := cfg.Filters.Bounds()
	if b.AgeMin != 18 || b.AgeMax != 60 {
		t.Fatalf("unexpected age defaults: %d-%d", b.AgeMin, b.AgeMax)
	}
	if b.PriceMin != 100 || b.PriceMax != 1000 || b.PriceStep != 50 {
		t.Fatalf("unexpected price defaults: %+v", b)
	}
	if cfg.Client.RetryMax != 1 {
		t.Fatalf("unexpected client retry default: %d", cfg.Client.RetryMax)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LISTING_CACHE_TTL", "10s")
	t.Setenv("SAPHIRA_API_URL", "http://api.local:9000/")
	t.Setenv("LOG_ENCODING", "CONSOLE")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Listing.CacheTTL.String() != "10s" {
		t.Fatalf("unexpected cache ttl: %s", cfg.Listing.CacheTTL)
	}
	if cfg.Client.BaseURL != "http://api.local:9000" {
		t.Fatalf("unexpected base url: %s", cfg.Client.BaseURL)
	}
	if cfg.Log.Encoding != "console" {
		t.Fatalf("unexpected log encoding: %s", cfg.Log.Encoding)
	}
}

func TestLoadRejectsDefaultJWTSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when auth.jwt_secret is the default in production")
	}
}

func TestLoadRejectsInvertedAgeBounds(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("filters:\n  age_min: 50\n  age_max: 30\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for inverted age bounds")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"LOG_ENCODING",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"S3_PRESIGN_TTL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"REFRESH_TTL",
		"TOTP_ISSUER",
		"PASSWORD_COST",
		"LOGIN_PER_MINUTE",
		"LOGIN_PER_10SEC",
		"LISTING_CACHE_TTL",
		"SAPHIRA_API_URL",
		"SAPHIRA_TIMEOUT",
		"SAPHIRA_RETRY_MAX",
		"SAPHIRA_STORE",
	} {
		t.Setenv(key, "")
	}
}
