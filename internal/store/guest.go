package store

import (
	"context"

	"github.com/lexora-app/lexora-core/internal/domain"
)

// GuestStateStore defines the device-local persistence of the guest
// snapshot. There is exactly one writer (the local device), so the store
// needs no locking; Save is best-effort and a failure must not roll back the
// in-memory state, because losing a local write only risks re-doing a merge.
type GuestStateStore interface {
	// Load reads the guest snapshot.
	// Returns ErrGuestStateNotFound when no snapshot exists.
	Load(ctx context.Context) (*domain.GuestLocalState, error)

	// Save serializes and stores the snapshot.
	Save(ctx context.Context, state *domain.GuestLocalState) error

	// Delete removes the snapshot. Called only after a confirmed
	// reconciliation commit.
	Delete(ctx context.Context) error
}
