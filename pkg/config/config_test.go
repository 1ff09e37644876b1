package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Catalog.BaseURL != "https://api.escuelajs.co/api/v1" {
		t.Fatalf("unexpected catalog base url %q", cfg.Catalog.BaseURL)
	}
	if !cfg.Catalog.Sequenced {
		t.Fatal("expected catalog sequencing to default on")
	}
	if got := cfg.Catalog.Timeout; got != 10*time.Second {
		t.Fatalf("expected catalog timeout 10s, got %v", got)
	}
	if cfg.AuthStore.Key != "@stylinx_auth" {
		t.Fatalf("unexpected auth store key %q", cfg.AuthStore.Key)
	}
	if !cfg.Checkout.FastShippingCost.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected fast shipping cost 10, got %s", cfg.Checkout.FastShippingCost)
	}
	if cfg.NeedsDB() || cfg.NeedsRedis() {
		t.Fatal("default config should not need db or redis")
	}
}

func TestLoad_FirebaseRequiresAPIKey(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvFirebaseAPIKey, "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing firebase api key to return an error")
	}
}

func TestLoad_LocalIdentityRequiresSecret(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvIdentityProvider, IdentityProviderLocal)

	if _, err := Load(); err == nil {
		t.Fatal("expected missing jwt secret to return an error")
	}

	t.Setenv(EnvJWTSecret, "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.NeedsDB() {
		t.Fatal("local identity should require the database")
	}
}

func TestLoad_RedisAuthStoreRequiresAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAuthStore, AuthStoreRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without address to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.NeedsRedis() {
		t.Fatal("expected redis to be required")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAuthStore, "floppy")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}

func TestLoad_NegativeShippingCost(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvFastShippingCost, "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected negative shipping cost to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvIdentityProvider, IdentityProviderFirebase)
	t.Setenv(EnvFirebaseAPIKey, "api-key")
	t.Setenv(EnvAuthStore, AuthStoreNone)
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvFastShippingCost, "10")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func TestLoad_RateLimitAndCORSDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthRateLimit.LoginWindow != time.Minute || cfg.AuthRateLimit.LoginEmailLimit != 5 {
		t.Fatalf("unexpected login limits %+v", cfg.AuthRateLimit)
	}
	if cfg.AuthRateLimit.SignupWindow != 10*time.Minute || cfg.AuthRateLimit.SignupIPLimit != 10 {
		t.Fatalf("unexpected signup limits %+v", cfg.AuthRateLimit)
	}
	if len(cfg.App.CORSOrigins) != 2 || cfg.App.CORSOrigins[0] != "http://localhost:8081" {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.RedisConfigured() {
		t.Fatal("redis should not be configured by default")
	}

	t.Setenv(EnvRedisAddr, "localhost:6379")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.RedisConfigured() {
		t.Fatal("expected redis to be configured")
	}
}
