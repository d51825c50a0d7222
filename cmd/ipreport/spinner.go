// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"sync"
	"time"
)

// spinner is yet another blindingly simple spinner, indicating lookups in
// flight. It is safe to stop a spinner more than once, as well as to stop a
// spinner that never started.
type spinner struct {
	frames []string
	done   chan struct{}
	stop   sync.Once
	mu     sync.Mutex
	frame  int
}

// newSpinner returns a new spinner; later call the Start method to make it
// spinning, and the Stop method to stop it and release background resources.
func newSpinner() *spinner {
	frames := []string{}
	for _, r := range "⠉⠘⠰⠤⠆⠃" {
		frames = append(frames, string(r)+" ")
	}
	return &spinner{
		frames: frames,
		done:   make(chan struct{}),
	}
}

// Frame returns the current spinner frame.
func (s *spinner) Frame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[s.frame]
}

// Start the spinner to advance a frame every specified interval.
func (s *spinner) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.frame = (s.frame + 1) % len(s.frames)
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop the spinner and release the background resources.
func (s *spinner) Stop() {
	s.stop.Do(func() { close(s.done) })
}
