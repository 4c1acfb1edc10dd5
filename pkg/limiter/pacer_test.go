package limiter

import (
	"context"
	"testing"
	"time"
)

func TestPacer_DelayWithoutJitter(t *testing.T) {
	p := NewPacer(250*time.Millisecond, 0, 1)

	for i := 0; i < 3; i++ {
		if got := p.Delay(); got != 250*time.Millisecond {
			t.Errorf("Delay() = %v, want 250ms", got)
		}
	}
}

func TestPacer_DelayJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	jitter := 50 * time.Millisecond
	p := NewPacer(base, jitter, 7)

	for i := 0; i < 50; i++ {
		got := p.Delay()
		if got < base || got >= base+jitter {
			t.Fatalf("Delay() = %v outside [%v, %v)", got, base, base+jitter)
		}
	}
}

func TestPacer_SeedControlled(t *testing.T) {
	a := NewPacer(time.Millisecond, time.Millisecond, 99)
	b := NewPacer(time.Millisecond, time.Millisecond, 99)

	for i := 0; i < 10; i++ {
		if a.Delay() != b.Delay() {
			t.Fatal("same seed produced different delay sequences")
		}
	}
}

func TestPacer_PauseZeroDelayReturnsImmediately(t *testing.T) {
	p := NewPacer(0, 0, 1)

	start := time.Now()
	if err := p.Pause(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("zero-delay Pause took %v", elapsed)
	}
}

func TestPacer_PauseHonorsCancellation(t *testing.T) {
	p := NewPacer(time.Minute, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := p.Pause(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Pause did not return promptly after cancel: %v", elapsed)
	}
}
