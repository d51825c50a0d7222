// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pacing

import (
	"context"
	"sync"
	"time"
)

// Clock tells time and sleeps.
type Clock interface {
	Now() time.Time
	// Sleep for the specified duration, returning early with the context's
	// error when the context is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the real thing.
type SystemClock struct{}

var _ Clock = SystemClock{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep for the specified duration, unless the context is done before.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VirtualClock is a Clock whose time only advances when sleeping or when
// being explicitly advanced. It is safe for concurrent use.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

var _ Clock = (*VirtualClock)(nil)

// NewVirtualClock returns a new VirtualClock starting at the specified time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now returns the virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep fast-forwards the virtual time by d, unless the context is already
// done.
func (c *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

// Advance the virtual time by d without counting it as sleep.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps returns the durations slept so far.
func (c *VirtualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
