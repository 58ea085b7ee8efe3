package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaultsLogging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Logging.Output = %q, want stdout", cfg.Logging.Output)
	}
}

func TestApplyDefaultsPage(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Page.Path != "pagestore.dat" {
		t.Errorf("Page.Path = %q, want pagestore.dat", cfg.Page.Path)
	}
	if cfg.Page.Capacity == 0 {
		t.Error("Page.Capacity = 0, want DefaultCapacity")
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Page: PageConfig{Path: "/var/lib/pagestore/custom.dat"},
	}
	ApplyDefaults(cfg)

	if cfg.Page.Path != "/var/lib/pagestore/custom.dat" {
		t.Errorf("Page.Path = %q, want explicit value preserved", cfg.Page.Path)
	}
}

func TestApplyDefaultsShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestValidateRejectsMissingPagePath(t *testing.T) {
	cfg := &Config{
		Logging:         LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		ShutdownTimeout: time.Second,
	}
	if err := Validate(cfg); err == nil {
		t.Error("Validate() = nil, want error for empty Page.Path")
	}
}

func TestLoadFallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Page.Path != "pagestore.dat" {
		t.Errorf("Page.Path = %q, want default pagestore.dat", cfg.Page.Path)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Page.Path = "/var/lib/pagestore/page.dat"

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Page.Path != cfg.Page.Path {
		t.Errorf("Page.Path = %q, want %q", loaded.Page.Path, cfg.Page.Path)
	}
}
