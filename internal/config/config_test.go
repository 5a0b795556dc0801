package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/flashquiz")
	t.Setenv("STUDY_SUBMIT_RETRIES", "4")

	path := writeConfig(t, `
env: production
decks:
  path: /srv/decks
study:
  session_size: 5
  idle_timeout: 10m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "production" || cfg.Decks.Path != "/srv/decks" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Study.SessionSize != 5 || cfg.Study.IdleTimeout != 10*time.Minute {
		t.Errorf("study = %+v", cfg.Study)
	}
	if cfg.Study.SubmitRetries != 4 {
		t.Errorf("SubmitRetries = %d, want env override 4", cfg.Study.SubmitRetries)
	}
	if cfg.Study.SweepSchedule != "@every 1m" || cfg.Storage.Driver != DriverPostgres {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.TelegramAPIToken != "token" {
		t.Errorf("TelegramAPIToken = %q", cfg.TelegramAPIToken)
	}
	if err := cfg.RequireBot(); err != nil {
		t.Errorf("RequireBot: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "storage:\n  driver: mysql\n"},
		{name: "zero session size", body: "study:\n  session_size: 0\n"},
		{name: "too many retries", body: "study:\n  submit_retries: 50\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestRequireStorage(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(writeConfig(t, "env: local\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := cfg.RequireStorage(); !errors.Is(err, ErrMissingEnvironmentVariables) {
		t.Errorf("postgres without DATABASE_URL: got %v", err)
	}
	if err := cfg.RequireBot(); !errors.Is(err, ErrMissingEnvironmentVariables) {
		t.Errorf("bot without token: got %v", err)
	}

	cfg.Storage.Driver = DriverSQLite
	if err := cfg.RequireStorage(); err != nil {
		t.Errorf("sqlite storage: %v", err)
	}
}
