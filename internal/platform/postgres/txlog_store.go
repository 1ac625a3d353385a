package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/store"
)

// PostgresResourceTransactionStore implements the
// store.ResourceTransactionStore interface using a PostgreSQL database as
// the storage backend. Rows are append-only; there is no update or delete.
type PostgresResourceTransactionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresResourceTransactionStore creates a new PostgreSQL
// implementation of the ResourceTransactionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresResourceTransactionStore(
	db store.DBTX,
	logger *slog.Logger,
) *PostgresResourceTransactionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresResourceTransactionStore{
		db:     db,
		logger: logger.With(slog.String("component", "resource_transaction_store")),
	}
}

// Ensure interface compliance at compile time
var _ store.ResourceTransactionStore = (*PostgresResourceTransactionStore)(nil)

// WithTx implements store.ResourceTransactionStore.WithTx
func (s *PostgresResourceTransactionStore) WithTx(tx *sql.Tx) store.ResourceTransactionStore {
	return &PostgresResourceTransactionStore{db: tx, logger: s.logger}
}

// Append implements store.ResourceTransactionStore.Append
func (s *PostgresResourceTransactionStore) Append(
	ctx context.Context,
	txn *domain.ResourceTransaction,
) error {
	query := `
		INSERT INTO resource_transactions (id, account_id, kind, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID,
		txn.AccountID,
		string(txn.Kind),
		txn.Delta,
		string(txn.Reason),
		txn.CreatedAt,
	)
	if err != nil {
		s.logger.Error("failed to append resource transaction",
			slog.String("account_id", txn.AccountID.String()),
			slog.String("kind", string(txn.Kind)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to append resource transaction: %w", MapError(err))
	}

	return nil
}

// ListForAccount implements store.ResourceTransactionStore.ListForAccount
func (s *PostgresResourceTransactionStore) ListForAccount(
	ctx context.Context,
	accountID uuid.UUID,
	limit int,
) ([]domain.ResourceTransaction, error) {
	query := `
		SELECT id, account_id, kind, delta, reason, created_at
		FROM resource_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resource transactions: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var txns []domain.ResourceTransaction
	for rows.Next() {
		var (
			txn    domain.ResourceTransaction
			kind   string
			reason string
		)
		if err := rows.Scan(&txn.ID, &txn.AccountID, &kind, &txn.Delta, &reason, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource transaction: %w", err)
		}
		txn.Kind = domain.ResourceKind(kind)
		txn.Reason = domain.TransactionReason(reason)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resource transactions: %w", err)
	}

	return txns, nil
}
