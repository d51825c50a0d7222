// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/siemens/ipreport/types"
)

// Board keeps track of the most recent status of each address of a run. A
// typical use case for a Board is to consume progress updates from the news
// stream of a Scheduler for rendering them.
type Board struct {
	m  map[int]types.AddressUpdate // lookup index -> most recent update
	mu sync.Mutex
}

// NewBoard returns a new and properly initialized Board.
func NewBoard() *Board {
	return &Board{
		m: map[int]types.AddressUpdate{},
	}
}

// Get returns the most recent updates of all addresses, in lookup order.
func (b *Board) Get() []types.AddressUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	updates := make([]types.AddressUpdate, 0, len(b.m))
	for _, update := range b.m {
		updates = append(updates, update)
	}
	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Index < updates[j].Index
	})
	return updates
}

// Counts returns the number of addresses per status.
func (b *Board) Counts() map[types.AddressStatus]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := map[types.AddressStatus]int{}
	for _, update := range b.m {
		counts[update.Status]++
	}
	return counts
}

// Update the board with an address update. Known addresses are updated only
// in case their status advances as follows:
//   - from pending to looking up,
//   - from looking up to either failed or enriched.
func (b *Board) Update(update types.AddressUpdate) {
	if update.Address == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if known, ok := b.m[update.Index]; ok && update.Status <= known.Status {
		return // slightly simplified "update" rule
	}
	b.m[update.Index] = update
}

// Track updates received from the specified news channel until the channel is
// closed or the context done. Track only returns after processing all updates
// or when the context is done.
func (b *Board) Track(ctx context.Context, news <-chan types.AddressUpdate) error {
	for {
		select {
		case update, ok := <-news:
			if !ok {
				return nil
			}
			b.Update(update)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
