package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
)

// ResourceTransactionStore defines persistence for the append-only resource
// audit log. Rows are immutable once written; the log is never read back to
// reconstruct balances.
type ResourceTransactionStore interface {
	// Append writes one audit record.
	Append(ctx context.Context, txn *domain.ResourceTransaction) error

	// ListForAccount returns the most recent audit records for an account,
	// newest first, up to limit rows.
	ListForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.ResourceTransaction, error)

	// WithTx returns a store bound to the given transaction.
	WithTx(tx *sql.Tx) ResourceTransactionStore
}
