package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/store"
)

// PostgresWordProgressStore implements the store.WordProgressStore
// interface using a PostgreSQL database as the storage backend.
type PostgresWordProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWordProgressStore creates a new PostgreSQL implementation of
// the WordProgressStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresWordProgressStore(db store.DBTX, logger *slog.Logger) *PostgresWordProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWordProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "word_progress_store")),
	}
}

// Ensure interface compliance at compile time
var _ store.WordProgressStore = (*PostgresWordProgressStore)(nil)

// WithTx implements store.WordProgressStore.WithTx
func (s *PostgresWordProgressStore) WithTx(tx *sql.Tx) store.WordProgressStore {
	return &PostgresWordProgressStore{db: tx, logger: s.logger}
}

// Get implements store.WordProgressStore.Get
func (s *PostgresWordProgressStore) Get(
	ctx context.Context,
	accountID uuid.UUID,
	wordID string,
) (*domain.WordProgress, error) {
	query := `
		SELECT word_id, status, attempts, is_favorite, used_hint, last_answer_at, example_sentence
		FROM word_progress
		WHERE account_id = $1 AND word_id = $2
	`

	progress, err := scanWordProgress(s.db.QueryRowContext(ctx, query, accountID, wordID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordProgressNotFound
		}
		return nil, fmt.Errorf("failed to get word progress: %w", MapError(err))
	}
	return progress, nil
}

// GetAllForAccount implements store.WordProgressStore.GetAllForAccount
func (s *PostgresWordProgressStore) GetAllForAccount(
	ctx context.Context,
	accountID uuid.UUID,
) ([]domain.WordProgress, error) {
	query := `
		SELECT word_id, status, attempts, is_favorite, used_hint, last_answer_at, example_sentence
		FROM word_progress
		WHERE account_id = $1
		ORDER BY word_id
	`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list word progress: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []domain.WordProgress
	for rows.Next() {
		var (
			progress     domain.WordProgress
			status       string
			lastAnswerAt sql.NullTime
		)
		err := rows.Scan(
			&progress.WordID,
			&status,
			&progress.Attempts,
			&progress.IsFavorite,
			&progress.UsedHint,
			&lastAnswerAt,
			&progress.ExampleSentence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word progress: %w", err)
		}
		progress.Status = domain.WordStatus(status)
		progress.LastAnswerAt = timePtr(lastAnswerAt)
		records = append(records, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate word progress: %w", err)
	}

	return records, nil
}

// Upsert implements store.WordProgressStore.Upsert
func (s *PostgresWordProgressStore) Upsert(
	ctx context.Context,
	accountID uuid.UUID,
	progress *domain.WordProgress,
) error {
	if !progress.Status.Valid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidWordStatus)
	}

	query := `
		INSERT INTO word_progress
			(account_id, word_id, status, attempts, is_favorite, used_hint,
			 last_answer_at, example_sentence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (account_id, word_id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			is_favorite = EXCLUDED.is_favorite,
			used_hint = EXCLUDED.used_hint,
			last_answer_at = EXCLUDED.last_answer_at,
			example_sentence = EXCLUDED.example_sentence,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		accountID,
		progress.WordID,
		string(progress.Status),
		progress.Attempts,
		progress.IsFavorite,
		progress.UsedHint,
		nullableTime(progress.LastAnswerAt),
		progress.ExampleSentence,
		time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("failed to upsert word progress",
			slog.String("account_id", accountID.String()),
			slog.String("word_id", progress.WordID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upsert word progress: %w", MapError(err))
	}

	return nil
}

// scanWordProgress reads one word progress row.
func scanWordProgress(row *sql.Row) (*domain.WordProgress, error) {
	var (
		progress     domain.WordProgress
		status       string
		lastAnswerAt sql.NullTime
	)
	err := row.Scan(
		&progress.WordID,
		&status,
		&progress.Attempts,
		&progress.IsFavorite,
		&progress.UsedHint,
		&lastAnswerAt,
		&progress.ExampleSentence,
	)
	if err != nil {
		return nil, err
	}
	progress.Status = domain.WordStatus(status)
	progress.LastAnswerAt = timePtr(lastAnswerAt)
	return &progress, nil
}
