package devicelock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexora-app/lexora-core/internal/clock"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/service/devicelock"
	"github.com/lexora-app/lexora-core/internal/store"
)

// memDeviceStore is an in-memory DeviceStateStore.
type memDeviceStore struct {
	states map[string]*domain.DeviceSecurityState
}

func newMemDeviceStore() *memDeviceStore {
	return &memDeviceStore{states: make(map[string]*domain.DeviceSecurityState)}
}

func (s *memDeviceStore) Get(ctx context.Context, deviceID string) (*domain.DeviceSecurityState, error) {
	state, ok := s.states[deviceID]
	if !ok {
		return nil, store.ErrDeviceStateNotFound
	}
	copied := *state
	return &copied, nil
}

func (s *memDeviceStore) Upsert(ctx context.Context, state *domain.DeviceSecurityState) error {
	copied := *state
	s.states[state.DeviceID] = &copied
	return nil
}

func newTestService(now time.Time) (devicelock.Service, *memDeviceStore, *clock.Manual) {
	devices := newMemDeviceStore()
	clk := clock.NewManual(now)
	svc := devicelock.NewService(devices, clk, 5, time.Hour, nil)
	return svc, devices, clk
}

func TestLockTripsAtThreshold(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, svc.RecordFailedLogin(ctx, "device-1"),
			"failure %d must not lock", i)
		require.NoError(t, svc.AssertNotLocked(ctx, "device-1"))
	}

	// The fifth failure opens the lockout window
	err := svc.RecordFailedLogin(ctx, "device-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, devicelock.ErrDeviceLocked)

	var locked *devicelock.LockedError
	require.ErrorAs(t, err, &locked)
	assert.True(t, locked.Until.Equal(now.Add(time.Hour)))
	assert.Equal(t, time.Hour, locked.Remaining)
	assert.Contains(t, locked.Error(), "try again in 60 minutes")

	assert.ErrorIs(t, svc.AssertNotLocked(ctx, "device-1"), devicelock.ErrDeviceLocked)
}

func TestLockedDeviceFailsFast(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, devices, _ := newTestService(now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.RecordFailedLogin(ctx, "device-1")
	}

	// Attempts behind the lock fail without growing the counter
	err := svc.RecordFailedLogin(ctx, "device-1")
	assert.ErrorIs(t, err, devicelock.ErrDeviceLocked)

	state, getErr := devices.Get(ctx, "device-1")
	require.NoError(t, getErr)
	assert.Equal(t, 0, state.FailedLoginAttempts,
		"the counter must not grow while the device is locked")
}

func TestLockExpiresLazily(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, clk := newTestService(now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.RecordFailedLogin(ctx, "device-1")
	}
	assert.ErrorIs(t, svc.AssertNotLocked(ctx, "device-1"), devicelock.ErrDeviceLocked)

	// No unlock write happens; the window is simply over once the trusted
	// clock passes the deadline.
	clk.Advance(61 * time.Minute)
	assert.NoError(t, svc.AssertNotLocked(ctx, "device-1"))

	// Counting starts fresh after the window
	assert.NoError(t, svc.RecordFailedLogin(ctx, "device-1"))
}

func TestResetClearsCounterAndLock(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, devices, _ := newTestService(now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordFailedLogin(ctx, "device-1"))
	}
	require.NoError(t, svc.ResetFailedLogins(ctx, "device-1"))

	state, err := devices.Get(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.FailedLoginAttempts)
	assert.Nil(t, state.LockUntil)

	// Resetting an unknown device is a no-op
	assert.NoError(t, svc.ResetFailedLogins(ctx, "device-unknown"))
}

func TestUnknownDeviceIsNotLocked(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	assert.NoError(t, svc.AssertNotLocked(context.Background(), "never-seen"))
}

func TestDegradedClockBlocksLockDecisions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, clk := newTestService(now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.RecordFailedLogin(ctx, "device-1")
	}

	// With the oracle unreachable a lock must never be judged expired
	clk.SetDegraded(true)
	clk.Advance(2 * time.Hour)

	err := svc.AssertNotLocked(ctx, "device-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, clock.ErrClockUnavailable)
	assert.False(t, errors.Is(err, devicelock.ErrDeviceLocked))
}

func TestEmptyDeviceID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	assert.ErrorIs(t, svc.AssertNotLocked(ctx, ""), devicelock.ErrEmptyDeviceID)
	assert.ErrorIs(t, svc.RecordFailedLogin(ctx, ""), devicelock.ErrEmptyDeviceID)
	assert.ErrorIs(t, svc.ResetFailedLogins(ctx, ""), devicelock.ErrEmptyDeviceID)
}
