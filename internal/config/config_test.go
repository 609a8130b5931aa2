package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL_MINUTES", "")
	t.Setenv("VIEWED_TTL_DAYS", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SessionTTLMinutes != 120 {
		t.Fatalf("expected default session TTL 120, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.ViewedTTLDays != 7 {
		t.Fatalf("expected default viewed TTL 7, got %d", cfg.ViewedTTLDays)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected default token TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadRejectsGarbageTTLs(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "not-a-number")
	t.Setenv("VIEWED_TTL_DAYS", "-3")

	cfg := Load()
	if cfg.SessionTTLMinutes != 120 {
		t.Fatalf("garbage session TTL should fall back to 120, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.ViewedTTLDays != 7 {
		t.Fatalf("negative viewed TTL should fall back to 7, got %d", cfg.ViewedTTLDays)
	}
}
