// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pacing

import (
	"context"
	"fmt"
	"time"

	"github.com/thediveo/lxkns/log"
	"golang.org/x/time/rate"
)

// Default budget of lookups per cooldown window, and the cooldown itself.
const (
	DefaultLimit    = 45
	DefaultCooldown = 60 * time.Second
)

// Policy paces lookups. AwaitSlot suspends the caller until the lookup with
// the specified index may be issued, and reports whether it had to pause. It
// returns early with the context's error when the context is done.
type Policy interface {
	AwaitSlot(ctx context.Context, index int) (paused bool, err error)
}

// Cooldown is a hard-pause Policy: before the lookups with indices limit,
// 2*limit, 3*limit, ... it pauses for the cooldown duration. N lookups thus
// incur floor((N-1)/limit) pauses.
type Cooldown struct {
	limit    int
	cooldown time.Duration
	clock    Clock
}

var _ Policy = (*Cooldown)(nil)

// NewCooldown returns a new Cooldown policy using the specified clock; a nil
// clock means the SystemClock.
func NewCooldown(limit int, cooldown time.Duration, clock Clock) (*Cooldown, error) {
	if limit < 1 {
		return nil, fmt.Errorf("rate limit must be at least 1, got %d", limit)
	}
	if cooldown < 0 {
		return nil, fmt.Errorf("cooldown must not be negative, got %s", cooldown)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cooldown{
		limit:    limit,
		cooldown: cooldown,
		clock:    clock,
	}, nil
}

// AwaitSlot pauses for the cooldown duration if index is a multiple of the
// limit (except for index 0).
func (c *Cooldown) AwaitSlot(ctx context.Context, index int) (bool, error) {
	if index == 0 || index%c.limit != 0 {
		return false, ctx.Err()
	}
	log.Infof("rate limit of %d lookups reached, pausing for %s", c.limit, c.cooldown)
	return true, c.clock.Sleep(ctx, c.cooldown)
}

// TokenBucket is a smoothing Policy that spreads lookups evenly at a rate of
// limit lookups per window. In contrast to Cooldown it doesn't pause the
// pipeline in bulk, but briefly before nearly every lookup.
type TokenBucket struct {
	limiter *rate.Limiter
}

var _ Policy = (*TokenBucket)(nil)

// NewTokenBucket returns a new TokenBucket policy allowing limit lookups per
// window, with a burst of a single lookup.
func NewTokenBucket(limit int, window time.Duration) (*TokenBucket, error) {
	if limit < 1 {
		return nil, fmt.Errorf("rate limit must be at least 1, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), 1),
	}, nil
}

// AwaitSlot waits for the next token.
func (t *TokenBucket) AwaitSlot(ctx context.Context, _ int) (bool, error) {
	r := t.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return false, nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true, nil
	case <-ctx.Done():
		r.Cancel()
		return false, ctx.Err()
	}
}

// Shared serializes a Policy across concurrent runs: it ignores the per-run
// lookup indices and instead counts all lookups of all runs, so that the
// budget of the wrapped policy applies globally. A Shared policy is safe for
// concurrent use.
type Shared struct {
	lock   chan struct{} // held while waiting for the wrapped policy.
	policy Policy
	next   int
}

var _ Policy = (*Shared)(nil)

// NewShared returns a new Shared policy wrapping the specified policy.
func NewShared(policy Policy) *Shared {
	return &Shared{
		lock:   make(chan struct{}, 1),
		policy: policy,
	}
}

// AwaitSlot waits for the next global slot. Callers queueing behind another
// caller that is currently pausing give up as soon as their own context is
// done.
func (s *Shared) AwaitSlot(ctx context.Context, _ int) (bool, error) {
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	defer func() { <-s.lock }()
	paused, err := s.policy.AwaitSlot(ctx, s.next)
	if err != nil {
		return paused, err
	}
	s.next++
	return paused, nil
}
