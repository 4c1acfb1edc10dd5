package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer enforces the politeness delay between consecutive page fetches.
// Responsibilities:
// - Compute the delay for the next request (base delay plus seeded jitter)
// - Block the crawl loop for that duration
// - Honor context cancellation while waiting
//
// The pacer is unconditional: the crawl engine calls Pause between every two
// processed frontier items, not only between requests to the same host.
type Pacer struct {
	mu        sync.Mutex
	baseDelay time.Duration
	jitter    time.Duration
	rng       *rand.Rand
}

func NewPacer(baseDelay time.Duration, jitter time.Duration, randomSeed int64) *Pacer {
	return &Pacer{
		baseDelay: baseDelay,
		jitter:    jitter,
		rng:       rand.New(rand.NewSource(randomSeed)),
	}
}

// Delay returns the waiting time for the next request. Jitter is drawn from
// the seeded generator, so a fixed seed gives a reproducible schedule.
func (p *Pacer) Delay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	delay := p.baseDelay
	if p.jitter > 0 {
		delay += time.Duration(p.rng.Int63n(int64(p.jitter)))
	}
	return delay
}

// Pause blocks for the computed delay or until ctx is cancelled, whichever
// comes first. A zero base delay with zero jitter returns immediately.
func (p *Pacer) Pause(ctx context.Context) error {
	delay := p.Delay()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
