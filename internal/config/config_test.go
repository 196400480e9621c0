package config

import "testing"

func TestLoadIncludesRelayDefaults(t *testing.T) {
	t.Setenv("RELAY_MAX_BODY_BYTES", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("KV_BACKEND", "")
	t.Setenv("SCAN_DETECT_DISEASE", "")

	cfg := Load()
	if cfg.RelayMaxBodyBytes != 16<<20 {
		t.Fatalf("expected default body ceiling 16MiB, got %d", cfg.RelayMaxBodyBytes)
	}
	if cfg.APIRateLimitRPS != 10 {
		t.Fatalf("expected default rate limit 10 rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.KVBackend != "localfs" {
		t.Fatalf("expected default kv backend localfs, got %q", cfg.KVBackend)
	}
	if !cfg.DetectDisease {
		t.Fatalf("expected disease detection on by default")
	}
	if cfg.NATSURL != "" {
		t.Fatalf("expected nats disabled by default, got %q", cfg.NATSURL)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RELAY_MAX_BODY_BYTES", "1024")
	t.Setenv("API_RATE_LIMIT_RPS", "3")
	t.Setenv("KV_BACKEND", "postgres")
	t.Setenv("SCAN_DETECT_DISEASE", "false")
	t.Setenv("SCAN_LANG", "de")
	t.Setenv("SCAN_JPEG_QUALITY", "not-a-number")

	cfg := Load()
	if cfg.RelayMaxBodyBytes != 1024 {
		t.Fatalf("expected body ceiling override, got %d", cfg.RelayMaxBodyBytes)
	}
	if cfg.APIRateLimitRPS != 3 {
		t.Fatalf("expected rate limit override, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.KVBackend != "postgres" {
		t.Fatalf("expected kv backend override, got %q", cfg.KVBackend)
	}
	if cfg.DetectDisease {
		t.Fatalf("expected disease detection off")
	}
	if cfg.Lang != "de" {
		t.Fatalf("expected lang override, got %q", cfg.Lang)
	}
	if cfg.JPEGQuality != 85 {
		t.Fatalf("unparseable int must fall back to default, got %d", cfg.JPEGQuality)
	}
}
