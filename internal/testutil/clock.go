// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// ReferenceTime is the starting point of a FakeClock created from the zero time.
var ReferenceTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock is a manually driven time source. Its Now method has the
// func() time.Time shape that components taking a clock hook expect.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewFakeClock returns a FakeClock set to initial, or to ReferenceTime when
// initial is zero.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = ReferenceTime
	}
	return &FakeClock{current: initial}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}
