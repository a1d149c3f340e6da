package discovery

import (
	"context"
	"sync"
	"sync/atomic"
)

// AdaptiveLimiter bounds concurrent nmap subprocess launches across every
// Worker in a job using an AIMD (Additive Increase / Multiplicative
// Decrease) congestion-control scheme: once currentLimit consecutive
// scans have succeeded, the limit grows by one token; a single failed or
// timed-out scan cuts it by 30%. This keeps many workers from spawning
// nmap at once on startup while still ramping concurrency up on a quiet
// network, complementing the Coordinator's fixed startup-throttle delay.
type AdaptiveLimiter struct {
	sem             chan struct{}
	reductionNeeded int32

	mu           sync.Mutex
	currentLimit int
	minLimit     int
	maxLimit     int
	successCount int
}

// NewAdaptiveLimiter builds a limiter starting at initial concurrent tokens,
// clamped to [min, max].
func NewAdaptiveLimiter(initial, min, max int) *AdaptiveLimiter {
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	l := &AdaptiveLimiter{
		sem:          make(chan struct{}, max),
		currentLimit: initial,
		minLimit:     min,
		maxLimit:     max,
	}
	for i := 0; i < initial; i++ {
		l.sem <- struct{}{}
	}
	return l
}

// Acquire blocks for one token until it is available or ctx is done.
func (l *AdaptiveLimiter) Acquire(ctx context.Context) error {
	select {
	case <-l.sem:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns one token, destroying it instead of returning it if a
// prior OnFailure still has an outstanding reduction to collect.
func (l *AdaptiveLimiter) Release() {
	if atomic.LoadInt32(&l.reductionNeeded) > 0 {
		for {
			val := atomic.LoadInt32(&l.reductionNeeded)
			if val <= 0 {
				break
			}
			if atomic.CompareAndSwapInt32(&l.reductionNeeded, val, val-1) {
				return
			}
		}
	}
	select {
	case l.sem <- struct{}{}:
	default:
	}
}

// OnSuccess records a successful operation. Every currentLimit consecutive
// successes grow the limit by one token.
func (l *AdaptiveLimiter) OnSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.successCount++
	if l.successCount >= l.currentLimit {
		l.successCount = 0
		l.increaseLimit(1)
	}
}

// OnFailure records a failed operation, cutting the limit by 30% (at least
// one token) and resetting the success streak.
func (l *AdaptiveLimiter) OnFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	newLimit := int(float64(l.currentLimit) * 0.7)
	decrease := l.currentLimit - newLimit
	if decrease < 1 {
		decrease = 1
	}
	l.decreaseLimit(decrease)
	l.successCount = 0
}

func (l *AdaptiveLimiter) increaseLimit(n int) {
	target := l.currentLimit + n
	if target > l.maxLimit {
		target = l.maxLimit
	}
	diff := target - l.currentLimit
	if diff <= 0 {
		return
	}
	l.currentLimit = target
	for i := 0; i < diff; i++ {
		select {
		case l.sem <- struct{}{}:
		default:
		}
	}
}

func (l *AdaptiveLimiter) decreaseLimit(n int) {
	target := l.currentLimit - n
	if target < l.minLimit {
		target = l.minLimit
	}
	diff := l.currentLimit - target
	if diff <= 0 {
		return
	}
	l.currentLimit = target

	removed := 0
	for i := 0; i < diff; i++ {
		select {
		case <-l.sem:
			removed++
		default:
		}
	}
	remaining := diff - removed
	if remaining > 0 {
		atomic.AddInt32(&l.reductionNeeded, int32(remaining))
	}
}

// CurrentLimit reports the limiter's current token ceiling.
func (l *AdaptiveLimiter) CurrentLimit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentLimit
}
