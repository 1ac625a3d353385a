package domain

import (
	"testing"
	"time"
)

func TestDeviceRecordFailureTripsLock(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := NewDeviceSecurityState("device-1")

	for i := 1; i <= 4; i++ {
		if tripped := state.RecordFailure(now, 5, time.Hour); tripped {
			t.Fatalf("Expected no lock after %d failures", i)
		}
	}
	if state.FailedLoginAttempts != 4 {
		t.Errorf("Expected 4 failed attempts, got %d", state.FailedLoginAttempts)
	}

	// The fifth failure trips the lock and resets the counter
	if tripped := state.RecordFailure(now, 5, time.Hour); !tripped {
		t.Fatal("Expected the fifth failure to trip the lock")
	}
	if state.FailedLoginAttempts != 0 {
		t.Errorf("Expected counter reset to 0 after tripping, got %d", state.FailedLoginAttempts)
	}
	if state.LockUntil == nil || !state.LockUntil.Equal(now.Add(time.Hour)) {
		t.Errorf("Expected lock until %v, got %v", now.Add(time.Hour), state.LockUntil)
	}
}

func TestDeviceLockLazyExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := NewDeviceSecurityState("device-1")
	for i := 0; i < 5; i++ {
		state.RecordFailure(now, 5, time.Hour)
	}

	if !state.Locked(now.Add(59 * time.Minute)) {
		t.Error("Expected the device to be locked inside the window")
	}
	if got := state.LockRemaining(now.Add(45 * time.Minute)); got != 15*time.Minute {
		t.Errorf("Expected 15 minutes remaining, got %v", got)
	}

	// No write happens at expiry; the lock is simply over once the
	// deadline has passed.
	if state.Locked(now.Add(time.Hour)) {
		t.Error("Expected the lock to be over at its deadline")
	}
	if got := state.LockRemaining(now.Add(2 * time.Hour)); got != 0 {
		t.Errorf("Expected zero remaining after expiry, got %v", got)
	}
}

func TestDeviceReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := NewDeviceSecurityState("device-1")
	for i := 0; i < 5; i++ {
		state.RecordFailure(now, 5, time.Hour)
	}

	state.Reset()

	if state.FailedLoginAttempts != 0 || state.LastFailedAt != nil || state.LockUntil != nil {
		t.Errorf("Expected a clean state after reset, got %+v", state)
	}
}
