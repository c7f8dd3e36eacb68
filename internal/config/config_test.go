package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perm = %o, want 0600", perm)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "listen: \"0.0.0.0:9090\"\nlog_level: \"loud\"\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9090" {
		t.Errorf("listen = %s", cfg.Listen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unknown log level should fall back to info, got %s", cfg.LogLevel)
	}
	if cfg.DBPath == "" || cfg.Snapshot.Width <= 0 {
		t.Errorf("zero values not normalized: %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:7000"
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Listen != "127.0.0.1:7000" {
		t.Errorf("listen = %s", loaded.Listen)
	}
	if loaded.BasicAuth == nil || loaded.BasicAuth.Username != "admin" {
		t.Errorf("basic auth not round-tripped: %+v", loaded.BasicAuth)
	}
}
