package observability

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment variables that override InitLogger's defaults, generalizing
// the teacher's EDGECTL_LOG_* env-override idiom
// (internal/logging/config.go's applyEnvOverrides) from its smplog.Config
// target to zerolog's own Level/ConsoleWriter knobs.
const (
	EnvLogLevel  = "WIREMUXD_LOG_LEVEL"
	EnvLogFormat = "WIREMUXD_LOG_FORMAT" // "console" or "json"
)

// InitLogger constructs the process-wide zerolog.Logger, tagging every
// event with a component field, and installs it as the package-level
// log.Logger. Per SPEC_FULL.md's logging section: a console writer by
// default, JSON when WIREMUXD_LOG_FORMAT=json (the production shape, where
// stdout is typically scraped by a log collector rather than read by a
// human).
func InitLogger(component string) zerolog.Logger {
	var w io.Writer
	if strings.EqualFold(os.Getenv(EnvLogFormat), "json") {
		w = os.Stdout
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	logger = logger.Level(parseLevel(os.Getenv(EnvLogLevel)))
	log.Logger = logger
	return logger
}

func parseLevel(raw string) zerolog.Level {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(raw); err == nil {
		return lvl
	}
	// Accept a bare integer too, matching zerolog.Level's own encoding.
	if n, err := strconv.Atoi(raw); err == nil {
		return zerolog.Level(n)
	}
	return zerolog.InfoLevel
}
