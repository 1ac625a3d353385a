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

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the
// AccountStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, logger *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

// WithTx implements store.AccountStore.WithTx
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) store.AccountStore {
	return &PostgresAccountStore{db: tx, logger: s.logger}
}

const accountColumns = `
	id, email, hashed_password,
	daily_energy, bonus_energy, energy_refreshed_at,
	daily_reveal_tokens, bonus_reveal_tokens, reveal_refreshed_at,
	current_streak, longest_streak, last_activity_at,
	todays_mastered, todays_mastered_on,
	premium_active_until, premium_started_at, premium_source, premium_trial_used,
	created_at, updated_at`

// Create implements store.AccountStore.Create
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.HashedPassword,
		account.Energy.Daily,
		account.Energy.Bonus,
		account.Energy.RefreshedAt,
		account.RevealTokens.Daily,
		account.RevealTokens.Bonus,
		account.RevealTokens.RefreshedAt,
		account.CurrentStreak,
		account.LongestStreak,
		nullableTime(account.LastActivityAt),
		account.TodaysMastered,
		nullableTime(account.TodaysMasteredOn),
		nullableTime(account.PremiumActiveUntil),
		nullableTime(account.PremiumStartedAt),
		string(account.PremiumSource),
		account.PremiumTrialUsed,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
		}
		s.logger.Error("failed to create account",
			slog.String("account_id", account.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.AccountStore.GetByID
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail implements store.AccountStore.GetByEmail
func (s *PostgresAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, email))
}

// Update implements store.AccountStore.Update
func (s *PostgresAccountStore) Update(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE accounts SET
			email = $2,
			hashed_password = $3,
			daily_energy = $4,
			bonus_energy = $5,
			energy_refreshed_at = $6,
			daily_reveal_tokens = $7,
			bonus_reveal_tokens = $8,
			reveal_refreshed_at = $9,
			current_streak = $10,
			longest_streak = $11,
			last_activity_at = $12,
			todays_mastered = $13,
			todays_mastered_on = $14,
			premium_active_until = $15,
			premium_started_at = $16,
			premium_source = $17,
			premium_trial_used = $18,
			updated_at = $19
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.HashedPassword,
		account.Energy.Daily,
		account.Energy.Bonus,
		account.Energy.RefreshedAt,
		account.RevealTokens.Daily,
		account.RevealTokens.Bonus,
		account.RevealTokens.RefreshedAt,
		account.CurrentStreak,
		account.LongestStreak,
		nullableTime(account.LastActivityAt),
		account.TodaysMastered,
		nullableTime(account.TodaysMasteredOn),
		nullableTime(account.PremiumActiveUntil),
		nullableTime(account.PremiumStartedAt),
		string(account.PremiumSource),
		account.PremiumTrialUsed,
		account.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to update account",
			slog.String("account_id", account.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "account"); err != nil {
		return store.ErrAccountNotFound
	}
	return nil
}

// scanAccount reads one account row.
func (s *PostgresAccountStore) scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		account          domain.Account
		lastActivityAt   sql.NullTime
		todaysMasteredOn sql.NullTime
		premiumUntil     sql.NullTime
		premiumStarted   sql.NullTime
		premiumSource    string
	)

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.HashedPassword,
		&account.Energy.Daily,
		&account.Energy.Bonus,
		&account.Energy.RefreshedAt,
		&account.RevealTokens.Daily,
		&account.RevealTokens.Bonus,
		&account.RevealTokens.RefreshedAt,
		&account.CurrentStreak,
		&account.LongestStreak,
		&lastActivityAt,
		&account.TodaysMastered,
		&todaysMasteredOn,
		&premiumUntil,
		&premiumStarted,
		&premiumSource,
		&account.PremiumTrialUsed,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		return nil, MapError(err)
	}

	account.LastActivityAt = timePtr(lastActivityAt)
	account.TodaysMasteredOn = timePtr(todaysMasteredOn)
	account.PremiumActiveUntil = timePtr(premiumUntil)
	account.PremiumStartedAt = timePtr(premiumStarted)
	account.PremiumSource = domain.PremiumSource(premiumSource)

	return &account, nil
}

// nullableTime converts an optional timestamp to its SQL representation.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// timePtr converts a scanned nullable timestamp back into the domain shape,
// normalized to UTC.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
