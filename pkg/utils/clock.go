// Package utils provides the ambient utilities shared by the toolkit:
// logging, time abstraction and phase timing.
package utils

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock access so time-dependent code stays testable.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration

	// Sleep blocks the calling goroutine for d.
	Sleep(d time.Duration)

	// After returns a channel delivering the time after d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// RealClock delegates to the time package.
type RealClock struct{}

// NewRealClock returns a Clock backed by real time.
func NewRealClock() *RealClock { return &RealClock{} }

// Now returns time.Now().
func (*RealClock) Now() time.Time { return time.Now() }

// Since returns time.Since(t).
func (*RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Sleep calls time.Sleep.
func (*RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// After calls time.After.
func (*RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock frozen at start.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the mock time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the mock elapsed duration.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Sleep advances the mock time by d without blocking.
func (c *MockClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// After advances the mock time and delivers it immediately.
func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// Advance moves the mock time forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the mock time to t.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
