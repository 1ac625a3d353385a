package devicelock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexora-app/lexora-core/internal/clock"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/platform/logger"
	"github.com/lexora-app/lexora-core/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*deviceLockService)(nil)

// deviceLockService implements the Service interface.
type deviceLockService struct {
	devices   store.DeviceStateStore
	clock     clock.Clock
	threshold int
	lockFor   time.Duration
	logger    *slog.Logger
}

// NewService creates a new devicelock Service implementation.
func NewService(
	devices store.DeviceStateStore,
	clk clock.Clock,
	threshold int,
	lockFor time.Duration,
	log *slog.Logger,
) Service {
	if devices == nil {
		panic("devices cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if threshold <= 0 {
		threshold = 5
	}
	if lockFor <= 0 {
		lockFor = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &deviceLockService{
		devices:   devices,
		clock:     clk,
		threshold: threshold,
		lockFor:   lockFor,
		logger:    log.With(slog.String("component", "devicelock_service")),
	}
}

// AssertNotLocked implements Service.AssertNotLocked.
func (s *deviceLockService) AssertNotLocked(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	// Lock expiry is security sensitive: a degraded clock must surface as
	// an error instead of silently deciding the lock is over.
	now, err := s.clock.NowStrict(ctx)
	if err != nil {
		return fmt.Errorf("cannot evaluate lockout window: %w", err)
	}

	state, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if state.Locked(now) {
		return &LockedError{
			Until:     *state.LockUntil,
			Remaining: state.LockRemaining(now),
		}
	}
	return nil
}

// RecordFailedLogin implements Service.RecordFailedLogin.
func (s *deviceLockService) RecordFailedLogin(ctx context.Context, deviceID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	now, err := s.clock.NowStrict(ctx)
	if err != nil {
		return fmt.Errorf("cannot evaluate lockout window: %w", err)
	}

	state, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		state = domain.NewDeviceSecurityState(deviceID)
	}

	// Fail fast while locked; the counter does not grow behind the lock.
	if state.Locked(now) {
		return &LockedError{
			Until:     *state.LockUntil,
			Remaining: state.LockRemaining(now),
		}
	}

	tripped := state.RecordFailure(now, s.threshold, s.lockFor)
	if err := s.devices.Upsert(ctx, state); err != nil {
		return err
	}

	if tripped {
		log.Warn("device locked after repeated failed logins",
			slog.String("device_id", deviceID),
			slog.Time("lock_until", *state.LockUntil))
		return &LockedError{
			Until:     *state.LockUntil,
			Remaining: state.LockRemaining(now),
		}
	}

	log.Debug("recorded failed login",
		slog.String("device_id", deviceID),
		slog.Int("failed_attempts", state.FailedLoginAttempts))
	return nil
}

// ResetFailedLogins implements Service.ResetFailedLogins.
func (s *deviceLockService) ResetFailedLogins(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	state, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	state.Reset()
	return s.devices.Upsert(ctx, state)
}
