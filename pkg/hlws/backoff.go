package hlws

import (
	"math/rand"
	"sync"
	"time"
)

// BackoffConfig configures BackoffPolicy.
type BackoffConfig struct {
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	MaxAttempts    uint32  // 0 = unbounded
	JitterFraction float64 // 0 = deterministic delays
}

// BackoffPolicy computes the next reconnect delay from the attempt
// count and decides whether retries should continue. "Should I keep
// going" and "how long do I wait" are separate queries so the
// supervisor can decide to fail terminally without sleeping first.
type BackoffPolicy struct {
	cfg BackoffConfig

	mu              sync.Mutex
	attempt         uint32
	lastAttemptTime time.Time
}

// NewBackoffPolicy creates a BackoffPolicy from cfg.
func NewBackoffPolicy(cfg BackoffConfig) *BackoffPolicy {
	return &BackoffPolicy{cfg: cfg}
}

// ShouldRetry reports whether another attempt is permitted: true iff
// MaxAttempts == 0 (unbounded) or attempt < MaxAttempts.
func (b *BackoffPolicy) ShouldRetry() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.MaxAttempts == 0 || b.attempt < b.cfg.MaxAttempts
}

// NextDelay computes base = min(initial * multiplier^attempt, max), then
// applies symmetric jitter of +/- JitterFraction*base, clamped to be
// non-negative. It does not mutate attempt; call RecordAttempt
// separately once the delay is used.
func (b *BackoffPolicy) NextDelay() time.Duration {
	b.mu.Lock()
	attempt := b.attempt
	cfg := b.cfg
	b.mu.Unlock()

	base := float64(cfg.InitialDelay)
	for i := uint32(0); i < attempt; i++ {
		base *= cfg.Multiplier
		if base > float64(cfg.MaxDelay) {
			base = float64(cfg.MaxDelay)
			break
		}
	}
	if cfg.MaxDelay > 0 && base > float64(cfg.MaxDelay) {
		base = float64(cfg.MaxDelay)
	}

	if cfg.JitterFraction > 0 {
		jitter := (rand.Float64()*2 - 1) * cfg.JitterFraction * base
		base += jitter
	}

	if base < 0 {
		base = 0
	}

	return time.Duration(base)
}

// RecordAttempt increments the attempt counter and stamps the time of
// this attempt.
func (b *BackoffPolicy) RecordAttempt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempt++
	b.lastAttemptTime = time.Now()
}

// Reset sets attempt back to zero. Called on every successful entry
// into Connected, so a stable connection that later dies restarts from
// InitialDelay.
func (b *BackoffPolicy) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempt = 0
}

// Snapshot returns a read-only view for Supervisor.Stats.
func (b *BackoffPolicy) Snapshot() BackoffSnapshot {
	b.mu.Lock()
	snap := BackoffSnapshot{
		Attempt:         b.attempt,
		LastAttemptTime: b.lastAttemptTime,
	}
	b.mu.Unlock()
	snap.NextDelayWouldBe = b.NextDelay()
	return snap
}
