package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "procrun.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout() != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout())
	}
	if cfg.MaxOutputBytes() != DefaultMaxOutput {
		t.Errorf("MaxOutputBytes = %d, want %d", cfg.MaxOutputBytes(), DefaultMaxOutput)
	}
}

func TestLoadConfig_Parses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procrun.yaml")
	raw := "timeout: 10m\nmax_output: 1024\nretry:\n  max_attempts: 3\n  initial_interval: 1s\n  max_interval: 30s\n  multiplier: 4\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout() != 10*time.Minute {
		t.Errorf("Timeout = %v, want 10m", cfg.Timeout())
	}
	if cfg.MaxOutputBytes() != 1024 {
		t.Errorf("MaxOutputBytes = %d, want 1024", cfg.MaxOutputBytes())
	}

	p := cfg.RetryPolicy()
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if p.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", p.InitialInterval)
	}
	if p.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", p.MaxInterval)
	}
	if p.Multiplier != 4 {
		t.Errorf("Multiplier = %v, want 4", p.Multiplier)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procrun.yaml")
	if err := os.WriteFile(path, []byte("timeout: [not a duration"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestConfig_Runner(t *testing.T) {
	cfg := &Config{RawTimeout: "90s", RawMaxOutput: 2048}
	r := cfg.Runner(zerolog.Nop())
	if r.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", r.Timeout)
	}
	if r.MaxOutput != 2048 {
		t.Errorf("MaxOutput = %d, want 2048", r.MaxOutput)
	}
}
