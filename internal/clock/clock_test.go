package clock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource is a Source returning a scripted time or error, counting calls.
type stubSource struct {
	mu    sync.Mutex
	now   time.Time
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return time.Time{}, s.err
	}
	return s.now, nil
}

func (s *stubSource) set(now time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.err = err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestOracleServesServerTime(t *testing.T) {
	t.Parallel()

	// Server an hour ahead of the local clock
	source := &stubSource{now: time.Now().Add(time.Hour)}
	oracle := NewOracle(source, 15*time.Minute, nil)

	now, degraded := oracle.Now(context.Background())
	require.False(t, degraded, "a reachable source must not degrade")

	drift := time.Until(now) - time.Hour
	assert.Less(t, drift.Abs(), 5*time.Second,
		"oracle should serve local time shifted by the learned offset")
}

func TestOracleCachesOffsetBetweenSyncs(t *testing.T) {
	t.Parallel()

	source := &stubSource{now: time.Now()}
	oracle := NewOracle(source, time.Hour, nil)

	_, _ = oracle.Now(context.Background())
	_, _ = oracle.Now(context.Background())
	_, err := oracle.NowStrict(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, source.callCount(),
		"only the first call inside the sync interval should hit the source")
}

func TestOracleKeepsStaleOffsetWhenSyncFails(t *testing.T) {
	t.Parallel()

	source := &stubSource{now: time.Now().Add(30 * time.Minute)}
	// Zero-ish interval so every call wants a fresh sync
	oracle := NewOracle(source, time.Nanosecond, nil)

	_, degraded := oracle.Now(context.Background())
	require.False(t, degraded)

	// The source goes dark; the previously learned offset keeps serving
	source.set(time.Time{}, errors.New("network down"))

	now, degraded := oracle.Now(context.Background())
	assert.False(t, degraded, "a stale trusted offset is not a degradation")
	drift := time.Until(now) - 30*time.Minute
	assert.Less(t, drift.Abs(), 5*time.Second)

	_, err := oracle.NowStrict(context.Background())
	assert.NoError(t, err, "NowStrict should accept the stale offset")
}

func TestOracleRejectsOffsetOlderThanBound(t *testing.T) {
	t.Parallel()

	source := &stubSource{now: time.Now().Add(30 * time.Minute)}
	oracle := NewOracle(source, time.Nanosecond, nil)

	_, degraded := oracle.Now(context.Background())
	require.False(t, degraded)

	// Source dark for longer than the offset is allowed to live
	source.set(time.Time{}, errors.New("network down"))
	oracle.mu.Lock()
	oracle.lastSync = oracle.lastSync.Add(-maxOffsetAge - time.Minute)
	oracle.mu.Unlock()

	_, err := oracle.NowStrict(context.Background())
	assert.ErrorIs(t, err, ErrClockUnavailable,
		"an offset past maxOffsetAge must not back a strict read")

	now, degraded := oracle.Now(context.Background())
	assert.True(t, degraded, "past the bound, Now falls back to the local clock")
	assert.WithinDuration(t, time.Now().UTC(), now, 5*time.Second)

	// A fresh sync restores strict service
	source.set(time.Now().Add(30*time.Minute), nil)
	_, err = oracle.NowStrict(context.Background())
	assert.NoError(t, err)
}

func TestOracleDegradesWithoutAnySync(t *testing.T) {
	t.Parallel()

	source := &stubSource{err: errors.New("network down")}
	oracle := NewOracle(source, 15*time.Minute, nil)

	now, degraded := oracle.Now(context.Background())
	assert.True(t, degraded, "an unreachable source with no history must degrade")
	assert.WithinDuration(t, time.Now().UTC(), now, 5*time.Second,
		"degraded mode serves the local clock")

	_, err := oracle.NowStrict(context.Background())
	assert.ErrorIs(t, err, ErrClockUnavailable)
}

func TestHTTPSourceFetch(t *testing.T) {
	t.Parallel()

	serverTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Date", serverTime.Format(http.TimeFormat))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, time.Second)
	got, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Equal(serverTime), "expected %v, got %v", serverTime, got)
}

func TestHTTPSourceMissingDateHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress the automatic Date header
		w.Header()["Date"] = nil
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, time.Second)
	_, err := source.Fetch(context.Background())
	assert.Error(t, err)
}

func TestManualClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := NewManual(start)

	now, degraded := clk.Now(context.Background())
	assert.False(t, degraded)
	assert.True(t, now.Equal(start))

	clk.Advance(25 * time.Hour)
	now, _ = clk.Now(context.Background())
	assert.True(t, now.Equal(start.Add(25*time.Hour)))

	clk.SetDegraded(true)
	_, degraded = clk.Now(context.Background())
	assert.True(t, degraded)
	_, err := clk.NowStrict(context.Background())
	assert.ErrorIs(t, err, ErrClockUnavailable)
}
