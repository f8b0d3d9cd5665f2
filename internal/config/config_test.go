package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/clinrec")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.BaseURL != "http://localhost:8000/fhir" {
		t.Errorf("unexpected base url %s", cfg.BaseURL)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool sizes %d/%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.ValidationFailSeverity != "error" {
		t.Errorf("expected fail severity error, got %s", cfg.ValidationFailSeverity)
	}
	if cfg.UpdateMaxAttempts != 3 {
		t.Errorf("expected 3 update attempts, got %d", cfg.UpdateMaxAttempts)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/clinrec")
	t.Setenv("PORT", "9000")
	t.Setenv("VALIDATION_FAIL_SEVERITY", "warning")
	t.Setenv("UPDATE_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.ValidationFailSeverity != "warning" {
		t.Errorf("expected warning, got %s", cfg.ValidationFailSeverity)
	}
	if cfg.UpdateMaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.UpdateMaxAttempts)
	}
}

func TestLoad_InvalidFailSeverity(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/clinrec")
	t.Setenv("VALIDATION_FAIL_SEVERITY", "severe")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestLoad_UpdateAttemptsFloor(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/clinrec")
	t.Setenv("UPDATE_MAX_ATTEMPTS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero attempts")
	}
}

func TestLoad_JWTRequiresSigningKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/clinrec")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("AUTH_SIGNING_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when AUTH_MODE=jwt without a signing key")
	}

	t.Setenv("AUTH_SIGNING_KEY", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.IsDev() {
		t.Error("jwt mode must not be treated as dev")
	}
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		name string
		env  string
		mode string
		want bool
	}{
		{"development default", "development", "", true},
		{"production default", "production", "", false},
		{"explicit dev wins", "production", "dev", true},
		{"explicit jwt wins", "development", "jwt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Env: tt.env, AuthMode: tt.mode}
			if got := cfg.IsDev(); got != tt.want {
				t.Errorf("IsDev() = %v, want %v", got, tt.want)
			}
		})
	}
}
