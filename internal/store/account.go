package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
)

// AccountStore defines persistence for learner accounts. Implementations
// must validate entities before saving and return the sentinel errors
// defined in this package for not-found and duplicate conditions.
type AccountStore interface {
	// Create saves a new account.
	// Returns ErrEmailExists if an account with the same email exists.
	// Returns validation errors from domain.Account.Validate.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its unique ID.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetByEmail retrieves an account by its email address, the external
	// identity key used by grant-by-identity.
	// Returns ErrAccountNotFound if no account matches.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Update saves the full mutable state of an existing account.
	// Returns ErrAccountNotFound if the account does not exist.
	// Returns validation errors from domain.Account.Validate.
	Update(ctx context.Context, account *domain.Account) error

	// WithTx returns a store bound to the given transaction, so account
	// mutations can share one atomic read-modify-write with the audit log
	// and word progress writes.
	WithTx(tx *sql.Tx) AccountStore
}
