package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EngineConfig carries the tunables a running wiremuxd instance needs:
// frame size limits, the byte-source queue depth, the ack-chunk threshold,
// and transport timeouts. Mirrors the teacher's DefaultConfig/Default()
// pattern: construct defaults, optionally override from a TOML file, then
// validate before use.
type EngineConfig struct {
	Name string `toml:"name"`
	Addr string `toml:"addr"`

	// MaxPayloadBytes is the configured frame payload limit. It is loaded
	// and validated only; the transport enforces its own MaxFrameLen
	// constant and does not read this field.
	MaxPayloadBytes uint32 `toml:"max_payload_bytes"`

	// ChunkQueueDepth is the configured byte-source queue depth. It is
	// loaded and validated only; byte sources queue chunks without a limit
	// and Push never blocks.
	ChunkQueueDepth int `toml:"chunk_queue_depth"`

	// AckChunkThreshold is the configured ack threshold in bytes. It is
	// loaded and validated only; the engine emits one ack-chunk frame per
	// fully drained chunk, whatever its size.
	AckChunkThreshold uint32 `toml:"ack_chunk_threshold"`

	ReadTimeout        time.Duration `toml:"read_timeout"`
	WriteTimeout       time.Duration `toml:"write_timeout"`
	ServiceOpenTimeout time.Duration `toml:"service_open_timeout"`

	AdminAddr string `toml:"admin_addr"`
}

// Default returns the built-in tunables, mirroring the teacher's
// DefaultServiceConfig.
func Default() EngineConfig {
	return EngineConfig{
		Name:               "wiremuxd",
		Addr:               ":9400",
		MaxPayloadBytes:    16 << 20,
		ChunkQueueDepth:    64,
		AckChunkThreshold:  1 << 16,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ServiceOpenTimeout: 5 * time.Second,
		AdminAddr:          ":9401",
	}
}

// Load reads a TOML file at path, applying its fields over Default() and
// validating the result.
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the engine or transport
// misbehave rather than simply fail to start.
func Validate(cfg EngineConfig) error {
	if cfg.Addr == "" {
		return fmt.Errorf("config: addr is required")
	}
	if cfg.MaxPayloadBytes == 0 {
		return fmt.Errorf("config: max_payload_bytes must be > 0")
	}
	if cfg.ChunkQueueDepth <= 0 {
		return fmt.Errorf("config: chunk_queue_depth must be > 0")
	}
	if cfg.AckChunkThreshold == 0 {
		return fmt.Errorf("config: ack_chunk_threshold must be > 0")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return fmt.Errorf("config: read_timeout and write_timeout must be > 0")
	}
	return nil
}
