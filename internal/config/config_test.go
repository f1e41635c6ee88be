package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefault(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("LOW_STOCK_THRESHOLD", "-3")
	t.Setenv("CART_TTL_MINUTES", "0")

	cfg := Load()
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected token ttl fallback 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.LowStockThreshold != 5 {
		t.Fatalf("expected low stock fallback 5, got %d", cfg.LowStockThreshold)
	}
	if cfg.CartTTLMinutes != 720 {
		t.Fatalf("expected cart ttl fallback 720, got %d", cfg.CartTTLMinutes)
	}
}

func TestAddress(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg := Load()
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}
