package transport

import (
	"math/rand"
	"time"
)

// BackoffConfig configures NextBackoffDelay, adapted from the teacher's
// session.BackoffConfig. It is a client-side helper: neither the engine
// nor cmd/wiremuxd (which only listens) calls it — spec §1 names
// reconnection a Non-goal for the protocol engine.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       float64 // fraction of the computed delay to randomize, e.g. 0.2
}

// DefaultBackoffConfig mirrors the teacher's session.DefaultConfig values.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
		Jitter:       0.2,
	}
}

// NextBackoffDelay computes the delay before reconnect attempt number
// attempt (0-indexed), applying an exponential multiplier capped at
// MaxDelay and randomized by +/-Jitter fraction.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	delay := float64(cfg.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= cfg.Multiplier
		if time.Duration(delay) > cfg.MaxDelay {
			delay = float64(cfg.MaxDelay)
			break
		}
	}
	if cfg.Jitter > 0 {
		spread := delay * cfg.Jitter
		delay += (rng.Float64()*2 - 1) * spread
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Dial repeatedly attempts to connect via dialFunc, backing off between
// attempts per cfg, until it succeeds or maxAttempts attempts have failed
// (maxAttempts <= 0 retries without limit). It returns the last error.
func Dial(dialFunc func() (conn interface{ Close() error }, err error), cfg BackoffConfig, maxAttempts int) (interface{ Close() error }, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		conn, err := dialFunc()
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(NextBackoffDelay(cfg, attempt, rng))
	}
	return nil, lastErr
}
