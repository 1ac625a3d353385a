package domain

import "time"

// DeviceSecurityState tracks failed login attempts for one device
// identifier, independent of any account. Lock expiry is lazy: a lock is
// over as soon as LockUntil has passed relative to the trusted clock, with
// no explicit unlock write.
type DeviceSecurityState struct {
	DeviceID            string     `json:"device_id"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastFailedAt        *time.Time `json:"last_failed_at,omitempty"`
	LockUntil           *time.Time `json:"lock_until,omitempty"`
}

// NewDeviceSecurityState returns a clean state for the given device.
func NewDeviceSecurityState(deviceID string) *DeviceSecurityState {
	return &DeviceSecurityState{DeviceID: deviceID}
}

// Locked reports whether the device is inside a lockout window at now.
func (d *DeviceSecurityState) Locked(now time.Time) bool {
	return d.LockUntil != nil && now.Before(*d.LockUntil)
}

// LockRemaining returns how much of the lockout window is left at now, or
// zero when the device is not locked.
func (d *DeviceSecurityState) LockRemaining(now time.Time) time.Duration {
	if !d.Locked(now) {
		return 0
	}
	return d.LockUntil.Sub(now)
}

// RecordFailure counts one failed login at now. When the counter reaches
// threshold the counter resets to zero and a lock window of lockFor opens;
// RecordFailure reports whether this failure tripped the lock.
func (d *DeviceSecurityState) RecordFailure(now time.Time, threshold int, lockFor time.Duration) bool {
	now = now.UTC()
	d.FailedLoginAttempts++
	d.LastFailedAt = &now
	if d.FailedLoginAttempts >= threshold {
		d.FailedLoginAttempts = 0
		until := now.Add(lockFor)
		d.LockUntil = &until
		return true
	}
	return false
}

// Reset clears the failure counter and any lock, called after a successful
// login.
func (d *DeviceSecurityState) Reset() {
	d.FailedLoginAttempts = 0
	d.LastFailedAt = nil
	d.LockUntil = nil
}
