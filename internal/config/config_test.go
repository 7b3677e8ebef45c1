package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() should validate cleanly: %v", err)
	}
}

func TestLoadOverridesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wiremuxd.toml")
	body := `
name = "wiremuxd-east"
addr = ":7000"
max_payload_bytes = 1048576
chunk_queue_depth = 8
ack_chunk_threshold = 4096
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "wiremuxd-east" || cfg.Addr != ":7000" {
		t.Fatalf("expected overrides to apply, got %+v", cfg)
	}
	if cfg.ChunkQueueDepth != 8 {
		t.Fatalf("expected chunk_queue_depth 8, got %d", cfg.ChunkQueueDepth)
	}
	// Fields not present in the file must keep their Default() values.
	if cfg.ReadTimeout != Default().ReadTimeout {
		t.Fatalf("expected read_timeout to retain default, got %v", cfg.ReadTimeout)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestValidateRejectsZeroMaxPayload(t *testing.T) {
	cfg := Default()
	cfg.MaxPayloadBytes = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected an error for max_payload_bytes == 0")
	}
}

func TestValidateRejectsEmptyAddr(t *testing.T) {
	cfg := Default()
	cfg.Addr = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected an error for empty addr")
	}
}
