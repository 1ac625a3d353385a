package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lexora-app/lexora-core/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// It receives the context and a transaction, and returns an error if the
// operation fails. The transaction is committed if the function returns nil,
// or rolled back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// maxTxAttempts bounds how often an account transaction is retried after a
// serialization conflict before the failure is surfaced to the caller.
const maxTxAttempts = 3

// RunInTransaction executes the given function within a database transaction
// with the supplied options. If the function returns an error, the
// transaction is rolled back; otherwise it is committed. Rollbacks after a
// panic are handled and logged.
func RunInTransaction(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if txErr := tx.Rollback(); txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debug("transaction committed successfully")
	return nil
}

// AccountTxRunner executes a function as a single atomic read-modify-write
// over an account record. Operations against the same account are serialized
// by the backing store; a detected conflicting concurrent write is retried
// with a fresh read rather than reapplying a stale delta.
type AccountTxRunner interface {
	RunInAccountTx(ctx context.Context, fn TxFn) error
}

// ConflictClassifier reports whether an error indicates a lost race with a
// concurrent transaction, so the runner knows which failures are safe to
// retry. Backends supply their own classifier (e.g. Postgres serialization
// failures).
type ConflictClassifier func(error) bool

// SerializableTxRunner implements AccountTxRunner over *sql.DB using
// serializable isolation. Conflicts are retried up to maxTxAttempts times;
// each attempt re-reads the account inside a fresh transaction.
type SerializableTxRunner struct {
	db         *sql.DB
	isConflict ConflictClassifier
	logger     *slog.Logger
}

var _ AccountTxRunner = (*SerializableTxRunner)(nil)

// NewSerializableTxRunner creates a runner over the given database handle.
// If logger is nil, a default logger is used.
func NewSerializableTxRunner(
	db *sql.DB,
	isConflict ConflictClassifier,
	logger *slog.Logger,
) *SerializableTxRunner {
	if db == nil {
		panic("db cannot be nil")
	}
	if isConflict == nil {
		panic("isConflict cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SerializableTxRunner{
		db:         db,
		isConflict: isConflict,
		logger:     logger.With(slog.String("component", "account_tx_runner")),
	}
}

// RunInAccountTx implements AccountTxRunner.
func (r *SerializableTxRunner) RunInAccountTx(ctx context.Context, fn TxFn) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = RunInTransaction(ctx, r.db, opts, fn)
		if err == nil {
			return nil
		}
		if !r.isConflict(err) {
			return err
		}
		r.logger.Warn("account transaction conflict, retrying with fresh read",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}

	return fmt.Errorf("%w: gave up after %d attempts: %v",
		ErrTransactionConflict, maxTxAttempts, err)
}
