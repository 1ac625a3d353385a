package reconcile

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
var _ Service = (*reconcileService)(nil)

// reconcileService implements the Service interface.
type reconcileService struct {
	runner   store.AccountTxRunner
	accounts store.AccountStore
	txlog    store.ResourceTransactionStore
	progress store.WordProgressStore
	guest    store.GuestStateStore
	clock    clock.Clock
	logger   *slog.Logger
}

// NewService creates a new reconciler implementation.
func NewService(
	runner store.AccountTxRunner,
	accounts store.AccountStore,
	txlog store.ResourceTransactionStore,
	progress store.WordProgressStore,
	guest store.GuestStateStore,
	clk clock.Clock,
	log *slog.Logger,
) Service {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if accounts == nil {
		panic("accounts cannot be nil")
	}
	if txlog == nil {
		panic("txlog cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	if guest == nil {
		panic("guest cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &reconcileService{
		runner:   runner,
		accounts: accounts,
		txlog:    txlog,
		progress: progress,
		guest:    guest,
		clock:    clk,
		logger:   log.With(slog.String("component", "reconcile_service")),
	}
}

// ReconcileGuestIntoAccount implements Service.ReconcileGuestIntoAccount.
func (s *reconcileService) ReconcileGuestIntoAccount(
	ctx context.Context,
	accountID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	snapshot, err := s.guest.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return &ServiceError{
			Operation: "reconcile",
			Message:   "failed to load guest snapshot",
			Err:       err,
		}
	}
	if snapshot.Empty() {
		// Nothing worth merging; just clean up the snapshot.
		if err := s.guest.Delete(ctx); err != nil {
			log.Warn("failed to delete empty guest snapshot",
				slog.String("error", err.Error()))
		}
		return nil
	}

	now, degraded := s.clock.Now(ctx)
	if degraded {
		log.Warn("reconciling on degraded local clock")
	}

	err = s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)

		account, err := accounts.GetByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %v", ErrAccountNotFound, err)
			}
			return err
		}

		merged, err := s.mergeWordProgress(ctx, tx, account.ID, snapshot)
		if err != nil {
			return err
		}

		s.mergeProgression(account, snapshot, merged, now)
		s.mergeEntitlement(account, snapshot)
		if err := s.mergeResources(ctx, tx, account, snapshot, now); err != nil {
			return err
		}

		account.Touch(now)
		return accounts.Update(ctx, account)
	})
	if err != nil {
		// The snapshot is retained so the merge can be retried on the
		// next sign-in.
		log.Error("guest reconciliation failed, snapshot retained",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
		return err
	}

	// Delete only after the transaction committed. A crash between commit
	// and delete re-runs the merge, which the max/OR/priority operators
	// make harmless.
	if err := s.guest.Delete(ctx); err != nil {
		log.Warn("merged guest snapshot could not be deleted, merge will re-run",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
	}

	log.Info("guest progress reconciled into account",
		slog.String("account_id", accountID.String()),
		slog.Int("guest_words", len(snapshot.Words)))
	return nil
}

// mergeWordProgress merges every word present on either side and writes the
// records that changed. It returns the merged set keyed by word ID.
func (s *reconcileService) mergeWordProgress(
	ctx context.Context,
	tx *sql.Tx,
	accountID uuid.UUID,
	snapshot *domain.GuestLocalState,
) (map[string]domain.WordProgress, error) {
	progress := s.progress.WithTx(tx)

	existing, err := progress.GetAllForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]domain.WordProgress, len(existing)+len(snapshot.Words))
	for _, record := range existing {
		merged[record.WordID] = record
	}
	for wordID, guestRecord := range snapshot.Words {
		guestRecord.WordID = wordID
		if accountRecord, ok := merged[wordID]; ok {
			merged[wordID] = domain.MergeWordProgress(accountRecord, guestRecord)
		} else {
			merged[wordID] = guestRecord
		}
	}

	for wordID, record := range merged {
		record := record
		if existingRecord, ok := findWord(existing, wordID); ok && existingRecord == record {
			continue
		}
		if err := progress.Upsert(ctx, accountID, &record); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// mergeProgression folds the guest streak and mastery counters into the
// account using max/later operators.
func (s *reconcileService) mergeProgression(
	account *domain.Account,
	snapshot *domain.GuestLocalState,
	merged map[string]domain.WordProgress,
	now time.Time,
) {
	if snapshot.CurrentStreak > account.CurrentStreak {
		account.CurrentStreak = snapshot.CurrentStreak
	}
	if snapshot.LongestStreak > account.LongestStreak {
		account.LongestStreak = snapshot.LongestStreak
	}
	if account.LongestStreak < account.CurrentStreak {
		account.LongestStreak = account.CurrentStreak
	}
	account.LastActivityAt = domain.LaterTime(account.LastActivityAt, snapshot.LastActivityAt)

	// The same-day mastery counter is recomputed, never added: the fresh
	// count from the merged records is compared against the guest counter
	// and the account counter, and the maximum wins. A guest counter from
	// a day that is no longer today is intentionally ignored.
	fresh := 0
	for _, record := range merged {
		if record.Mastered() && record.LastAnswerAt != nil && domain.SameDay(*record.LastAnswerAt, now) {
			fresh++
		}
	}
	if snapshot.TodaysMasteredOn != nil && domain.SameDay(*snapshot.TodaysMasteredOn, now) &&
		snapshot.TodaysMastered > fresh {
		fresh = snapshot.TodaysMastered
	}

	current := 0
	if account.TodaysMasteredOn != nil && domain.SameDay(*account.TodaysMasteredOn, now) {
		current = account.TodaysMastered
	}
	if fresh > current {
		account.TodaysMastered = fresh
		stamp := now.UTC()
		account.TodaysMasteredOn = &stamp
	}
}

// mergeEntitlement carries the guest trial consumption and any longer
// premium window onto the account, so deleting the snapshot cannot hand out
// a second trial.
func (s *reconcileService) mergeEntitlement(
	account *domain.Account,
	snapshot *domain.GuestLocalState,
) {
	account.PremiumTrialUsed = account.PremiumTrialUsed || snapshot.PremiumTrialUsed
	if snapshot.PremiumActiveUntil != nil &&
		(account.PremiumActiveUntil == nil || snapshot.PremiumActiveUntil.After(*account.PremiumActiveUntil)) {
		account.PremiumActiveUntil = snapshot.PremiumActiveUntil
		account.PremiumStartedAt = snapshot.PremiumStartedAt
		account.PremiumSource = snapshot.PremiumSource
	}
}

// mergeResources lifts each account bonus pool to the guest bonus amount
// when the guest holds more. Using a maximum rather than a sum keeps the
// merge idempotent when it is retried after a crash. Guest daily pools are
// discarded: the account's own daily allotment already governs that kind.
func (s *reconcileService) mergeResources(
	ctx context.Context,
	tx *sql.Tx,
	account *domain.Account,
	snapshot *domain.GuestLocalState,
	now time.Time,
) error {
	txlog := s.txlog.WithTx(tx)
	for _, kind := range domain.ResourceKinds {
		pool := account.Pool(kind)
		guestBonus := snapshot.Pool(kind).Bonus
		if guestBonus <= pool.Bonus {
			continue
		}
		delta := guestBonus - pool.Bonus
		pool.Grant(delta)
		txn := domain.NewResourceTransaction(account.ID, kind, delta, domain.ReasonGuestMerge, now)
		if err := txlog.Append(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

// findWord locates a record in the slice read from the store.
func findWord(records []domain.WordProgress, wordID string) (domain.WordProgress, bool) {
	for _, record := range records {
		if record.WordID == wordID {
			return record, true
		}
	}
	return domain.WordProgress{}, false
}
