package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/clock"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/platform/logger"
	"github.com/lexora-app/lexora-core/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*progressionService)(nil)

// progressionService implements the Service interface.
type progressionService struct {
	runner   store.AccountTxRunner
	accounts store.AccountStore
	progress store.WordProgressStore
	clock    clock.Clock
	logger   *slog.Logger
}

// NewService creates a new progression Service implementation.
func NewService(
	runner store.AccountTxRunner,
	accounts store.AccountStore,
	progress store.WordProgressStore,
	clk clock.Clock,
	log *slog.Logger,
) Service {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if accounts == nil {
		panic("accounts cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &progressionService{
		runner:   runner,
		accounts: accounts,
		progress: progress,
		clock:    clk,
		logger:   log.With(slog.String("component", "progression_service")),
	}
}

// RecordActivity implements Service.RecordActivity.
func (s *progressionService) RecordActivity(
	ctx context.Context,
	accountID uuid.UUID,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.trustedNow(ctx, log)

	var account *domain.Account
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)

		var err error
		account, err = accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		before := account.Progression
		account.ApplyActivity(now)
		if account.Progression == before {
			return nil
		}

		account.Touch(now)
		return accounts.Update(ctx, account)
	})
	if err != nil {
		log.Error("failed to record activity",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return account, nil
}

// RecordAnswer implements Service.RecordAnswer.
func (s *progressionService) RecordAnswer(
	ctx context.Context,
	accountID uuid.UUID,
	wordID string,
	correct, usedHint bool,
) (*domain.WordProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if wordID == "" {
		return nil, ErrEmptyWordID
	}

	now := s.trustedNow(ctx, log)

	var record *domain.WordProgress
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)
		progress := s.progress.WithTx(tx)

		account, err := accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		record, err = loadOrNewProgress(ctx, progress, accountID, wordID)
		if err != nil {
			return err
		}

		record.Attempts++
		record.UsedHint = record.UsedHint || usedHint
		record.LastAnswerAt = &now
		if record.Status == domain.WordStatusUnknown {
			record.Status = domain.WordStatusInProgress
		}

		if err := progress.Upsert(ctx, accountID, record); err != nil {
			return err
		}

		account.ApplyActivity(now)
		account.Touch(now)
		return accounts.Update(ctx, account)
	})
	if err != nil {
		log.Error("failed to record answer",
			slog.String("account_id", accountID.String()),
			slog.String("word_id", wordID),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("recorded answer",
		slog.String("account_id", accountID.String()),
		slog.String("word_id", wordID),
		slog.Bool("correct", correct))
	return record, nil
}

// RecordMastery implements Service.RecordMastery.
func (s *progressionService) RecordMastery(
	ctx context.Context,
	accountID uuid.UUID,
	wordID string,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if wordID == "" {
		return nil, ErrEmptyWordID
	}

	now := s.trustedNow(ctx, log)

	var account *domain.Account
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)
		progress := s.progress.WithTx(tx)

		var err error
		account, err = accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		record, err := loadOrNewProgress(ctx, progress, accountID, wordID)
		if err != nil {
			return err
		}

		newlyMastered := !record.Mastered()
		record.Attempts++
		record.Status = domain.WordStatusMastered
		record.LastAnswerAt = &now

		if err := progress.Upsert(ctx, accountID, record); err != nil {
			return err
		}

		account.ApplyActivity(now)
		if newlyMastered {
			account.ApplyMastery(now)
		}
		account.Touch(now)
		return accounts.Update(ctx, account)
	})
	if err != nil {
		log.Error("failed to record mastery",
			slog.String("account_id", accountID.String()),
			slog.String("word_id", wordID),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("recorded mastery",
		slog.String("account_id", accountID.String()),
		slog.String("word_id", wordID),
		slog.Int("todays_mastered", account.TodaysMastered))
	return account, nil
}

// loadOrNewProgress fetches the word record or starts a blank one.
func loadOrNewProgress(
	ctx context.Context,
	progress store.WordProgressStore,
	accountID uuid.UUID,
	wordID string,
) (*domain.WordProgress, error) {
	record, err := progress.Get(ctx, accountID, wordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &domain.WordProgress{
				WordID: wordID,
				Status: domain.WordStatusUnknown,
			}, nil
		}
		return nil, err
	}
	return record, nil
}

// trustedNow reads the oracle; streak decisions tolerate a degraded clock
// but the degradation is logged.
func (s *progressionService) trustedNow(ctx context.Context, log *slog.Logger) time.Time {
	now, degraded := s.clock.Now(ctx)
	if degraded {
		log.Warn("progression operating on degraded local clock")
	}
	return now
}

// mapAccountErr converts store-level not-found errors to the service
// sentinel.
func mapAccountErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, err)
	}
	return err
}
