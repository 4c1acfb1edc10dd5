package timeutil

import (
	"math/rand"
	"testing"
	"time"
)

func TestExponentialBackoffDelay(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{"first attempt uses initial duration", 1, 100 * time.Millisecond},
		{"second attempt doubles", 2, 200 * time.Millisecond},
		{"third attempt doubles again", 3, 400 * time.Millisecond},
		{"capped at max duration", 10, time.Second},
		{"attempt below one clamps to first", 0, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExponentialBackoffDelay(tt.attempt, 0, *rng, param)
			if got != tt.expected {
				t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestExponentialBackoffDelay_JitterBounds(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)
	jitter := 50 * time.Millisecond

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := ExponentialBackoffDelay(1, jitter, *rng, param)
		if got < 100*time.Millisecond || got >= 100*time.Millisecond+jitter {
			t.Errorf("seed %d: delay %v outside [100ms, 150ms)", seed, got)
		}
	}
}

func TestExponentialBackoffDelay_SeedControlled(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)

	a := ExponentialBackoffDelay(2, 50*time.Millisecond, *rand.New(rand.NewSource(7)), param)
	b := ExponentialBackoffDelay(2, 50*time.Millisecond, *rand.New(rand.NewSource(7)), param)
	if a != b {
		t.Errorf("same seed produced different delays: %v vs %v", a, b)
	}
}
