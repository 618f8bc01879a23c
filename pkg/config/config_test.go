package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
logging:
  level: "DEBUG"

coordinator:
  queue_size: 512
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.Coordinator.QueueSize != 512 {
		t.Errorf("expected queue_size 512, got %d", cfg.Coordinator.QueueSize)
	}
	if cfg.Coordinator.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown_timeout 10s, got %v", cfg.Coordinator.ShutdownTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistent := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistent)
	if err != nil {
		t.Fatalf("expected no error loading default config, got: %v", err)
	}
	if cfg.Coordinator.QueueSize != 256 {
		t.Errorf("expected default queue_size 256, got %d", cfg.Coordinator.QueueSize)
	}
}

func TestLoad_InvalidValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
logging:
  level: "NOT_A_LEVEL"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected validation error for invalid log level")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestMustLoad_MissingFileAtExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistent := filepath.Join(tmpDir, "nonexistent.yaml")

	if _, err := MustLoad(nonExistent); err == nil {
		t.Fatal("expected an error for a missing explicit config path")
	}
}

func TestMustLoad_ExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := MustLoad(configPath)
	if err != nil {
		t.Fatalf("MustLoad: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected level INFO, got %q", cfg.Logging.Level)
	}
}

func TestDurationDecodeHook(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
coordinator:
  shutdown_timeout: "5s"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Coordinator.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown_timeout 5s, got %v", cfg.Coordinator.ShutdownTimeout)
	}
}
