// Package devicelock implements the per-device failed-login throttle.
// Lock expiry is lazy: a lock is over once its deadline has passed relative
// to the trusted clock, with no explicit unlock write. The device clock is
// never consulted, so moving it forward cannot shorten a lockout.
package devicelock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service provides the login throttle operations for one device identifier.
type Service interface {
	// AssertNotLocked fails with a LockedError while the device is inside
	// a lockout window.
	AssertNotLocked(ctx context.Context, deviceID string) error

	// RecordFailedLogin counts one failed login. Reaching the configured
	// threshold resets the counter, opens the lockout window and returns a
	// LockedError. Calls made while already locked fail fast without
	// incrementing the counter.
	RecordFailedLogin(ctx context.Context, deviceID string) error

	// ResetFailedLogins zeroes the counter and clears any lock, called
	// after a successful login.
	ResetFailedLogins(ctx context.Context, deviceID string) error
}

// Common error types for the devicelock service.
var (
	// ErrDeviceLocked indicates the device is inside a lockout window.
	// Errors carrying it are always a *LockedError with the remaining time.
	ErrDeviceLocked = errors.New("device locked")

	// ErrEmptyDeviceID indicates an operation without a device identifier.
	ErrEmptyDeviceID = errors.New("device ID cannot be empty")
)

// LockedError reports an active lockout together with the remaining time,
// for user messaging.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

// Error implements the error interface for LockedError.
func (e *LockedError) Error() string {
	minutes := int(e.Remaining.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("device locked: try again in %d minutes", minutes)
}

// Unwrap makes errors.Is(err, ErrDeviceLocked) work.
func (e *LockedError) Unwrap() error {
	return ErrDeviceLocked
}
