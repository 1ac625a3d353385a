package store

import (
	"context"

	"github.com/lexora-app/lexora-core/internal/domain"
)

// DeviceStateStore defines persistence for per-device login throttle state.
// Device state is independent of accounts and sees no concurrent writers
// for a single device, so it needs no transactional coupling.
type DeviceStateStore interface {
	// Get retrieves the security state for a device.
	// Returns ErrDeviceStateNotFound when the device has no state yet.
	Get(ctx context.Context, deviceID string) (*domain.DeviceSecurityState, error)

	// Upsert creates or replaces the security state for a device.
	Upsert(ctx context.Context, state *domain.DeviceSecurityState) error
}
