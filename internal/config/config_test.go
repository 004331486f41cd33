package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Environment != "development" {
		t.Fatalf("environment default = %q", cfg.Environment)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("http port default = %d", cfg.HTTP.Port)
	}
	if cfg.Security.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("access token ttl default = %s", cfg.Security.AccessTokenTTL)
	}
	if cfg.Security.RefreshTokenTTL != 720*time.Hour {
		t.Fatalf("refresh token ttl default = %s", cfg.Security.RefreshTokenTTL)
	}
	if cfg.Security.OTPTTL != 30*time.Minute {
		t.Fatalf("otp ttl default = %s", cfg.Security.OTPTTL)
	}
	if cfg.Security.HeartbeatThrottle != time.Minute {
		t.Fatalf("heartbeat throttle default = %s", cfg.Security.HeartbeatThrottle)
	}
	if cfg.Security.InactivityWindow != 5*time.Minute {
		t.Fatalf("inactivity window default = %s", cfg.Security.InactivityWindow)
	}
	if cfg.Streams.Analytics != "analytics:events" {
		t.Fatalf("analytics stream default = %q", cfg.Streams.Analytics)
	}
	if cfg.Storage.BucketDocuments != "learnstack-documents" {
		t.Fatalf("documents bucket default = %q", cfg.Storage.BucketDocuments)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEARNSTACK_ENVIRONMENT", "production")
	t.Setenv("LEARNSTACK_HTTP_PORT", "9090")
	t.Setenv("LEARNSTACK_SECURITY_ACCESSTOKENTTL", "15m")
	t.Setenv("LEARNSTACK_REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Environment != "production" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("http port = %d", cfg.HTTP.Port)
	}
	if cfg.Security.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("access token ttl = %s", cfg.Security.AccessTokenTTL)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
}
