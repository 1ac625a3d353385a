package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/store"
)

// PostgresDeviceStateStore implements the store.DeviceStateStore interface
// using a PostgreSQL database as the storage backend. Device state is keyed
// by the opaque device identifier and is independent of accounts.
type PostgresDeviceStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeviceStateStore creates a new PostgreSQL implementation of
// the DeviceStateStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresDeviceStateStore(db store.DBTX, logger *slog.Logger) *PostgresDeviceStateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDeviceStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "device_state_store")),
	}
}

// Ensure interface compliance at compile time
var _ store.DeviceStateStore = (*PostgresDeviceStateStore)(nil)

// Get implements store.DeviceStateStore.Get
func (s *PostgresDeviceStateStore) Get(
	ctx context.Context,
	deviceID string,
) (*domain.DeviceSecurityState, error) {
	query := `
		SELECT device_id, failed_login_attempts, last_failed_at, lock_until
		FROM device_security_states
		WHERE device_id = $1
	`

	var (
		state        domain.DeviceSecurityState
		lastFailedAt sql.NullTime
		lockUntil    sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, deviceID).Scan(
		&state.DeviceID,
		&state.FailedLoginAttempts,
		&lastFailedAt,
		&lockUntil,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeviceStateNotFound
		}
		return nil, fmt.Errorf("failed to get device security state: %w", MapError(err))
	}

	state.LastFailedAt = timePtr(lastFailedAt)
	state.LockUntil = timePtr(lockUntil)
	return &state, nil
}

// Upsert implements store.DeviceStateStore.Upsert
func (s *PostgresDeviceStateStore) Upsert(
	ctx context.Context,
	state *domain.DeviceSecurityState,
) error {
	query := `
		INSERT INTO device_security_states
			(device_id, failed_login_attempts, last_failed_at, lock_until, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE SET
			failed_login_attempts = EXCLUDED.failed_login_attempts,
			last_failed_at = EXCLUDED.last_failed_at,
			lock_until = EXCLUDED.lock_until,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		state.DeviceID,
		state.FailedLoginAttempts,
		nullableTime(state.LastFailedAt),
		nullableTime(state.LockUntil),
		time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("failed to upsert device security state",
			slog.String("device_id", state.DeviceID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upsert device security state: %w", MapError(err))
	}

	return nil
}
