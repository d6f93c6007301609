package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/standup-test.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 8443 {
		t.Errorf("port = %d, want default", cfg.Gateway.Port)
	}
	if cfg.Database.Path != "/tmp/standup-test.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want default", cfg.Logging.Level)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
gateway:
  host: 0.0.0.0
  port: 443
  cert_file: /etc/ssl/cert.pem
  key_file: /etc/ssl/key.pem
database:
  path: /var/lib/standup/standup.db
  max_conns: 2
logging:
  level: debug
  format: json
github:
  app_id: "109929"
  private_key_path: /etc/standup/app.pem
tts:
  silence_cue: '<speaker audio="silence.opus">'
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.CertFile != "/etc/ssl/cert.pem" {
		t.Errorf("cert = %q", cfg.Gateway.CertFile)
	}
	if cfg.GitHub.AppID != "109929" {
		t.Errorf("app id = %q", cfg.GitHub.AppID)
	}
	if cfg.TTS.SilenceCue == "" {
		t.Error("silence cue not loaded")
	}
	if cfg.Database.MaxConns != 2 {
		t.Errorf("max conns = %d", cfg.Database.MaxConns)
	}
}

func TestValidateRejectsHalfConfiguredTLS(t *testing.T) {
	path := writeConfig(t, `
gateway:
  port: 443
  cert_file: /etc/ssl/cert.pem
database:
  path: /tmp/db
`)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for cert without key")
	}
}

func TestValidateRejectsHalfConfiguredGitHub(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/db
github:
  app_id: "1"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for app id without a key path")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STANDUP_DB_PATH", "/custom/db.sqlite")
	t.Setenv("TTS_FILENAME", "cue.opus")

	path := writeConfig(t, `
database:
  path: /tmp/db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/custom/db.sqlite" {
		t.Errorf("db path = %q, want env override", cfg.Database.Path)
	}
	if cfg.TTS.SilenceCue != "cue.opus" {
		t.Errorf("cue = %q, want env override", cfg.TTS.SilenceCue)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/db"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Database.Path != "/tmp/db" {
		t.Errorf("path = %q", loaded.Database.Path)
	}
}
