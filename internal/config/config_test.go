package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmbeddedDefaultWhenPathEmpty(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CycleInterval != 2*time.Millisecond {
		t.Fatalf("CycleInterval = %v, want 2ms", cfg.CycleInterval)
	}
	if cfg.DiscoveryInterval != 100*time.Millisecond {
		t.Fatalf("DiscoveryInterval = %v, want 100ms", cfg.DiscoveryInterval)
	}
}

func TestLoadFromDiskOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machinectl.json")
	doc := `{
		"cycle_interval_us": 5000,
		"serial": [{"path": "/dev/ttyUSB0", "baud_rate": 19200, "slave_id": 3}]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CycleInterval != 5*time.Millisecond {
		t.Fatalf("CycleInterval = %v, want 5ms", cfg.CycleInterval)
	}
	if len(cfg.Serial) != 1 {
		t.Fatalf("Serial = %v, want 1 entry", cfg.Serial)
	}
	if cfg.Serial[0].Path != "/dev/ttyUSB0" || cfg.Serial[0].BaudRate != 19200 || cfg.Serial[0].SlaveID != 3 {
		t.Fatalf("Serial[0] = %+v, unexpected", cfg.Serial[0])
	}
}

func TestEnvOverridesDiskValue(t *testing.T) {
	t.Setenv(envCycleIntervalUs, "9000")

	path := filepath.Join(t.TempDir(), "machinectl.json")
	if err := os.WriteFile(path, []byte(`{"cycle_interval_us": 5000}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CycleInterval != 9*time.Millisecond {
		t.Fatalf("CycleInterval = %v, want 9ms (env override)", cfg.CycleInterval)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}
