package clock

import (
	"context"
	"sync"
	"time"
)

// Manual is a Clock whose time is set by hand. It exists for tests that need
// to walk an account across calendar days without sleeping.
type Manual struct {
	mu       sync.Mutex
	now      time.Time
	degraded bool
}

var _ Clock = (*Manual)(nil)

// NewManual creates a manual clock reading the given time.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now.UTC()}
}

// Set moves the clock to the given time.
func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now.UTC()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// SetDegraded makes the clock report itself as degraded and NowStrict fail,
// simulating an unreachable oracle.
func (m *Manual) SetDegraded(degraded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded = degraded
}

// Now implements Clock.Now.
func (m *Manual) Now(ctx context.Context) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now, m.degraded
}

// NowStrict implements Clock.NowStrict.
func (m *Manual) NowStrict(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.degraded {
		return time.Time{}, ErrClockUnavailable
	}
	return m.now, nil
}
