package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/joestump/link-library/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LINKLIB_DB_DRIVER", "sqlite3")
	t.Setenv("LINKLIB_DB_DSN", "file:test.db")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http addr = %q, want %q", cfg.HTTP.Addr, ":8080")
	}
	if cfg.SessionLifetime != 720*time.Hour {
		t.Errorf("session lifetime = %v, want 720h", cfg.SessionLifetime)
	}
	if cfg.Metadata.UserAgent != "Mozilla/5.0 (compatible; LinkLibrary/1.0)" {
		t.Errorf("user agent = %q", cfg.Metadata.UserAgent)
	}
	if cfg.Metadata.Timeout != 10*time.Second {
		t.Errorf("metadata timeout = %v, want 10s", cfg.Metadata.Timeout)
	}
	if cfg.Export.Location != time.UTC {
		t.Errorf("export location = %v, want UTC", cfg.Export.Location)
	}
	if len(cfg.Extension.AllowedOrigins) != 0 {
		t.Errorf("allowed origins = %v, want none", cfg.Extension.AllowedOrigins)
	}
}

func TestLoad_MissingDriver(t *testing.T) {
	t.Setenv("LINKLIB_DB_DRIVER", "")
	t.Setenv("LINKLIB_DB_DSN", "file:test.db")

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "LINKLIB_DB_DRIVER") {
		t.Fatalf("err = %v, want LINKLIB_DB_DRIVER error", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LINKLIB_METADATA_TIMEOUT", "3s")
	t.Setenv("LINKLIB_EXTENSION_ALLOWED_ORIGINS", "chrome-extension://abc, moz-extension://def")
	t.Setenv("LINKLIB_INSECURE_COOKIES", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metadata.Timeout != 3*time.Second {
		t.Errorf("metadata timeout = %v, want 3s", cfg.Metadata.Timeout)
	}
	want := []string{"chrome-extension://abc", "moz-extension://def"}
	if len(cfg.Extension.AllowedOrigins) != len(want) {
		t.Fatalf("allowed origins = %v, want %v", cfg.Extension.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.Extension.AllowedOrigins[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, cfg.Extension.AllowedOrigins[i], want[i])
		}
	}
	if !cfg.InsecureCookies {
		t.Error("expected insecure cookies to be enabled")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("LINKLIB_METADATA_TIMEOUT", "soon")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestRequireOIDC(t *testing.T) {
	setRequired(t)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.RequireOIDC(); err == nil {
		t.Fatal("expected error with no OIDC settings")
	}

	cfg.OIDC.Issuer = "https://issuer.example.com"
	cfg.OIDC.ClientID = "client"
	cfg.OIDC.ClientSecret = "secret"
	cfg.OIDC.RedirectURL = "http://localhost:8080/auth/callback"
	if err := cfg.RequireOIDC(); err != nil {
		t.Errorf("RequireOIDC: %v", err)
	}
}
