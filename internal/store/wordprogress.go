package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
)

// WordProgressStore defines persistence for per-word learning records.
// The progression tracker writes through it on every answer, and the guest
// reconciler reads and rewrites it during a merge.
type WordProgressStore interface {
	// Get retrieves one word record for an account.
	// Returns ErrWordProgressNotFound when the account has never touched
	// the word.
	Get(ctx context.Context, accountID uuid.UUID, wordID string) (*domain.WordProgress, error)

	// GetAllForAccount returns every word record of the account.
	GetAllForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.WordProgress, error)

	// Upsert creates or replaces one word record for an account.
	Upsert(ctx context.Context, accountID uuid.UUID, progress *domain.WordProgress) error

	// WithTx returns a store bound to the given transaction.
	WithTx(tx *sql.Tx) WordProgressStore
}
