package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Backend.URL != "http://localhost:5000/api" {
		t.Errorf("unexpected backend URL %q", cfg.Backend.URL)
	}
	if cfg.Upload.MaxSize != 5*1024*1024 {
		t.Errorf("expected 5MiB upload cap, got %d", cfg.Upload.MaxSize)
	}
	if len(cfg.Upload.AllowedExtensions) != 3 {
		t.Errorf("expected 3 allowed extensions, got %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.Cache.TTL != 10*time.Second {
		t.Errorf("expected 10s list cache TTL, got %s", cfg.Cache.TTL)
	}
	if cfg.Wizard.DraftTTL != 2*time.Hour {
		t.Errorf("expected 2h draft TTL, got %s", cfg.Wizard.DraftTTL)
	}
	if cfg.Auth.SecretKey == "" {
		t.Error("expected dev secret key to be filled in")
	}
	if cfg.Database.Enabled() {
		t.Error("expected audit database to be disabled without DB_HOST")
	}
}

func TestLoad_NormalizesExtensions(t *testing.T) {
	t.Setenv("UPLOAD_EXTENSIONS", "CSV, .Xlsx")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{".csv", ".xlsx"}
	if len(cfg.Upload.AllowedExtensions) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Upload.AllowedExtensions)
	}
	for i := range want {
		if cfg.Upload.AllowedExtensions[i] != want[i] {
			t.Errorf("extension %d: expected %q, got %q", i, want[i], cfg.Upload.AllowedExtensions[i])
		}
	}
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("SECRET_KEY", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short secret key in production")
	}

	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing operator password hash in production")
	}

	t.Setenv("OPERATOR_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p@ss", Name: "mailroom"}
	dsn := d.DSN()
	if want := "u:p@ss@tcp(db:3306)/mailroom"; len(dsn) < len(want) || dsn[:len(want)] != want {
		t.Errorf("unexpected DSN %q", dsn)
	}

	d.DSNOverride = "custom"
	if d.DSN() != "custom" {
		t.Errorf("expected override DSN, got %q", d.DSN())
	}
}

func TestLoad_RejectsBadPageSize(t *testing.T) {
	t.Setenv("BACKEND_PAGE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero page size")
	}
}
