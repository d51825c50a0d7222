// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gammazero/workerpool"
	"github.com/siemens/ipreport/lookup"
	"github.com/siemens/ipreport/pacing"
	"github.com/siemens/ipreport/types"
	"github.com/thediveo/lxkns/log"
)

// ErrNoDataRetrieved signals that none of the addresses of a run yielded a
// record.
var ErrNoDataRetrieved = errors.New("no valid IP information could be retrieved")

// Scheduler runs paced lookups over address lists. A Scheduler can be used for
// multiple consecutive runs, but not for concurrent runs when it streams news.
type Scheduler struct {
	client  lookup.Client
	policy  pacing.Policy
	clock   pacing.Clock
	workers int
	news    chan<- types.AddressUpdate
}

// Option can be passed to New when creating new Scheduler objects.
type Option func(*Scheduler)

// New returns a new Scheduler looking up addresses using the specified lookup
// client, pacing the lookups according to the specified policy.
//
// The scheduler can be configured during creation using several options:
//   - [WithWorkers]
//   - [WithClock]
//   - [WithNews]
func New(client lookup.Client, policy pacing.Policy, options ...Option) *Scheduler {
	s := &Scheduler{
		client:  client,
		policy:  policy,
		clock:   pacing.SystemClock{},
		workers: 1,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithWorkers sets the maximum number of concurrent lookups.
func WithWorkers(workers int) Option {
	return func(s *Scheduler) {
		if workers < 1 {
			workers = 1
		}
		s.workers = workers
	}
}

// WithClock sets the clock for measuring the elapsed time of runs; this
// should be the same clock the pacing policy uses.
func WithClock(clock pacing.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithNews streams progress updates to the specified channel. The Scheduler
// never closes the channel; it is safe to close it after Run returned.
func WithNews(news chan<- types.AddressUpdate) Option {
	return func(s *Scheduler) {
		s.news = news
	}
}

// Run looks up the specified addresses in order and returns the records of all
// successful lookups in the same order, together with the run's metadata.
// Run returns with ErrNoDataRetrieved if no lookup succeeded.
//
// When the context gets cancelled, Run stops issuing further lookups (also
// when pausing) and returns the results so far together with the context
// error.
func (s *Scheduler) Run(ctx context.Context, addrs []string) (types.ResultSet, types.RunMetadata, error) {
	meta := types.RunMetadata{}
	// Initially announce all addresses to get the ball rolling so that the
	// consumer knows which addresses are going to be looked up next.
	for idx, addr := range addrs {
		s.report(ctx, types.AddressUpdate{Index: idx, Address: addr, Status: types.Pending})
	}

	// Each lookup writes only to its own slot, so we don't need to lock.
	slots := make([]*types.EnrichmentRecord, len(addrs))
	var pool *workerpool.WorkerPool
	if s.workers > 1 {
		pool = workerpool.New(s.workers)
	}
	var err error
	meta.Started = s.clock.Now()
	for idx, addr := range addrs {
		paused, perr := s.policy.AwaitSlot(ctx, idx)
		if paused {
			meta.Pauses++
		}
		if perr != nil {
			err = perr
			break
		}
		meta.Attempted++
		idx, addr := idx, addr
		if pool == nil {
			slots[idx] = s.lookup(ctx, idx, addr)
			continue
		}
		// A job queued behind busy workers must not start late in the next
		// pacing window, so we only ask for the next slot after this job has
		// been picked up by a worker.
		started := make(chan struct{})
		pool.Submit(func() {
			close(started)
			slots[idx] = s.lookup(ctx, idx, addr)
		})
		<-started
	}
	if pool != nil {
		pool.StopWait()
	}
	meta.Elapsed = s.clock.Now().Sub(meta.Started)

	results := types.ResultSet{}
	for _, rec := range slots {
		if rec != nil {
			results = append(results, *rec)
		}
	}
	meta.Failed = meta.Attempted - len(results)
	log.Debugf("looked up %d of %d addresses in %s, %d failed, %d pauses",
		meta.Attempted, len(addrs), meta.Elapsed, meta.Failed, meta.Pauses)
	if err != nil {
		return results, meta, fmt.Errorf("lookups aborted after %d of %d addresses: %w",
			meta.Attempted, len(addrs), err)
	}
	if len(results) == 0 {
		return nil, meta, ErrNoDataRetrieved
	}
	return results, meta, nil
}

// lookup a single address, returning its record or nil.
func (s *Scheduler) lookup(ctx context.Context, idx int, addr string) *types.EnrichmentRecord {
	s.report(ctx, types.AddressUpdate{Index: idx, Address: addr, Status: types.LookingUp})
	rec, err := s.client.Lookup(ctx, addr)
	if err != nil {
		log.Debugf("no record for IP %s: %s", addr, err.Error())
		s.report(ctx, types.AddressUpdate{Index: idx, Address: addr, Status: types.Failed, Err: err})
		return nil
	}
	s.report(ctx, types.AddressUpdate{Index: idx, Address: addr, Status: types.Enriched})
	return &rec
}

// report sends a progress update, if news are wanted. Sending is abandoned
// when the context gets cancelled to avoid leaking goroutines.
func (s *Scheduler) report(ctx context.Context, update types.AddressUpdate) {
	if s.news == nil {
		return
	}
	select {
	case s.news <- update:
	case <-ctx.Done():
	}
}
