package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_LOCAL_PATH", filepath.Join(t.TempDir(), "uploads"))

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.Mode != "debug" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Database.Driver != "mysql" {
		t.Fatalf("unexpected driver %q", cfg.Database.Driver)
	}
	if cfg.Training.CertificatePrefix != "WT" || cfg.Training.IssueLockTTL != 10*time.Second {
		t.Fatalf("unexpected training defaults %+v", cfg.Training)
	}
	if cfg.ConfigFile != "" {
		t.Fatalf("expected no config file, got %q", cfg.ConfigFile)
	}
	if _, err := os.Stat(cfg.Storage.LocalPath); err != nil {
		t.Fatalf("local storage dir not created: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "files")
	dir := writeConfig(t, `
server:
  port: "9090"
storage:
  type: local
  local_path: `+uploads+`
training:
  enforce_prerequisites: true
  issue_lock_ttl: 30s
  feedback_bands:
    - min_score: 80
      message: "Well done"
    - min_score: 0
      message: "Keep going"
`)
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("env should override file, got %q", cfg.Server.Port)
	}
	if !cfg.Training.EnforcePrerequisites || cfg.Training.IssueLockTTL != 30*time.Second {
		t.Fatalf("unexpected training config %+v", cfg.Training)
	}
	if len(cfg.Training.FeedbackBands) != 2 || cfg.Training.FeedbackBands[0].Message != "Well done" {
		t.Fatalf("unexpected bands %+v", cfg.Training.FeedbackBands)
	}
	if !strings.HasSuffix(cfg.ConfigFile, "config.yaml") {
		t.Fatalf("unexpected config file %q", cfg.ConfigFile)
	}

	t.Setenv("WELLNESS_TRAINING_CERTIFICATE_PREFIX", "WB")
	cfg, err = LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Training.CertificatePrefix != "WB" {
		t.Fatalf("prefixed env should override, got %q", cfg.Training.CertificatePrefix)
	}
	if !strings.HasSuffix(cfg.ConfigFile, "config.yaml") {
		t.Fatalf("unexpected config file %q", cfg.ConfigFile)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("STORAGE_LOCAL_PATH", filepath.Join(t.TempDir(), "uploads"))

	t.Run("band out of range", func(t *testing.T) {
		dir := writeConfig(t, `
training:
  feedback_bands:
    - min_score: 120
      message: "too high"
`)
		if _, err := LoadConfig(dir); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("short secret in release", func(t *testing.T) {
		t.Setenv("SERVER_MODE", "release")
		t.Setenv("JWT_SECRET", "short")
		if _, err := LoadConfig(t.TempDir()); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("local path blocked by file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("STORAGE_LOCAL_PATH", filepath.Join(file, "uploads"))
		if _, err := LoadConfig(t.TempDir()); err == nil {
			t.Fatal("expected error for storage path under a regular file")
		}
	})

	t.Run("long secret in release", func(t *testing.T) {
		t.Setenv("SERVER_MODE", "release")
		t.Setenv("JWT_SECRET", strings.Repeat("x", 32))
		if _, err := LoadConfig(t.TempDir()); err != nil {
			t.Fatal(err)
		}
	})
}
