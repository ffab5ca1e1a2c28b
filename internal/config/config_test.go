package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CSGOWIN_API_KEY", "csgo-key")
	t.Setenv("RAINBET_API_KEY", "rb-key")
	t.Setenv("SHEETS_DOC_ID", "doc-123")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.ServiceName != "leaderboard-api" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.CsgowinMaxRetries != 3 {
		t.Fatalf("unexpected CsgowinMaxRetries: %d", cfg.CsgowinMaxRetries)
	}
	if cfg.CsgowinAffiliateCode != "tygo" {
		t.Fatalf("unexpected CsgowinAffiliateCode: %q", cfg.CsgowinAffiliateCode)
	}
	if cfg.RainbetRefreshInterval != 5*time.Minute {
		t.Fatalf("unexpected RainbetRefreshInterval: %s", cfg.RainbetRefreshInterval)
	}
	if cfg.KeepAliveInterval != 270*time.Second {
		t.Fatalf("unexpected KeepAliveInterval: %s", cfg.KeepAliveInterval)
	}
	if cfg.KeepAliveEnabled {
		t.Fatalf("expected KeepAliveEnabled=false by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_RequiredKeys(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CSGOWIN_API_KEY", "")
	t.Setenv("RAINBET_API_KEY", "rb-key")
	t.Setenv("SHEETS_DOC_ID", "doc-123")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when CSGOWIN_API_KEY is missing")
	}

	t.Setenv("CSGOWIN_API_KEY", "csgo-key")
	t.Setenv("RAINBET_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when RAINBET_API_KEY is missing")
	}

	t.Setenv("RAINBET_API_KEY", "rb-key")
	t.Setenv("SHEETS_DOC_ID", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SHEETS_DOC_ID is missing")
	}
}

func TestLoad_KeepAliveRequiresURLWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("KEEPALIVE_ENABLED", "true")
	t.Setenv("KEEPALIVE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when KEEPALIVE_ENABLED=true without KEEPALIVE_URL")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev/123"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/123" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_DurationOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("RAINBET_REFRESH_INTERVAL", "90s")
	t.Setenv("CSGOWIN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RainbetRefreshInterval != 90*time.Second {
		t.Fatalf("unexpected RainbetRefreshInterval: %s", cfg.RainbetRefreshInterval)
	}
	if cfg.CsgowinTimeout != 3*time.Second {
		t.Fatalf("unexpected CsgowinTimeout: %s", cfg.CsgowinTimeout)
	}
}

func TestLoad_InvalidDurationRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RAINBET_REFRESH_INTERVAL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid RAINBET_REFRESH_INTERVAL")
	}
}
