package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "development" || cfg.Port != 3000 || cfg.DBPath != "eventhub.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", cfg.JWTTTL)
	}
	if cfg.AuthRateLimit != 20 || cfg.AuthRateWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d/%s", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected default origins: %v", cfg.CORSOrigins)
	}
	if cfg.Production() {
		t.Fatal("expected development mode")
	}
}

func TestLoadTrimsOrigins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CORS_ORIGIN", " http://a.test , http://b.test ,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.test" || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %q", cfg.CORSOrigins)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// Register a restore, then unset so the .env value applies.
	t.Setenv("DB_PATH", "")
	if err := os.Unsetenv("DB_PATH"); err != nil {
		t.Fatalf("unset: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "from-dotenv.db" {
		t.Fatalf("expected db path from .env, got %q", cfg.DBPath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidateServe(t *testing.T) {
	cfg := Config{Port: 3000}
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected missing secret error")
	}
	cfg.JWTSecret = "secret"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Port = 70000
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected port range error")
	}
	if (Config{Port: 8080}).Addr() != ":8080" {
		t.Fatal("unexpected addr")
	}
}
