package transport

import (
	"math/rand"
	"testing"
	"time"
)

func TestNextBackoffDelayGrowsAndCaps(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second, Jitter: 0}
	rng := rand.New(rand.NewSource(1))

	d0 := NextBackoffDelay(cfg, 0, rng)
	d1 := NextBackoffDelay(cfg, 1, rng)
	d2 := NextBackoffDelay(cfg, 2, rng)
	if d0 != 100*time.Millisecond {
		t.Fatalf("expected 100ms, got %v", d0)
	}
	if d1 != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", d1)
	}
	if d2 != 400*time.Millisecond {
		t.Fatalf("expected 400ms, got %v", d2)
	}

	capped := NextBackoffDelay(cfg, 10, rng)
	if capped != cfg.MaxDelay {
		t.Fatalf("expected delay capped at %v, got %v", cfg.MaxDelay, capped)
	}
}

func TestNextBackoffDelayNeverNegative(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Second, Jitter: 2.0}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if d := NextBackoffDelay(cfg, i, rng); d < 0 {
			t.Fatalf("got negative delay: %v", d)
		}
	}
}
