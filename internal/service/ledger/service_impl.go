package ledger

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
var _ Service = (*ledgerService)(nil)

// ledgerService implements the Service interface.
type ledgerService struct {
	runner   store.AccountTxRunner
	accounts store.AccountStore
	txlog    store.ResourceTransactionStore
	clock    clock.Clock
	allot    domain.Allotments
	logger   *slog.Logger
}

// NewService creates a new ledger Service implementation.
func NewService(
	runner store.AccountTxRunner,
	accounts store.AccountStore,
	txlog store.ResourceTransactionStore,
	clk clock.Clock,
	allot domain.Allotments,
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
	if clk == nil {
		panic("clock cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ledgerService{
		runner:   runner,
		accounts: accounts,
		txlog:    txlog,
		clock:    clk,
		allot:    allot,
		logger:   log.With(slog.String("component", "ledger_service")),
	}
}

// refill records one daily-pool reset applied during an operation.
type refill struct {
	kind  domain.ResourceKind
	delta int
}

// EnsureDailyRefill implements Service.EnsureDailyRefill.
func (s *ledgerService) EnsureDailyRefill(
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

		refills := s.applyRefills(account, now)
		if len(refills) == 0 {
			return nil
		}

		account.Touch(now)
		if err := accounts.Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return s.auditRefills(ctx, tx, accountID, refills, now)
	})
	if err != nil {
		log.Error("daily refill failed",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return account, nil
}

// Consume implements Service.Consume.
func (s *ledgerService) Consume(
	ctx context.Context,
	accountID uuid.UUID,
	kind domain.ResourceKind,
	amount int,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !kind.Valid() {
		return nil, ErrUnknownResourceKind
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if amount == 0 {
		// A zero consume is a successful no-op; it still honors the
		// refill-first contract but writes no consumption record.
		return s.EnsureDailyRefill(ctx, accountID)
	}

	now := s.trustedNow(ctx, log)

	var account *domain.Account
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)

		var err error
		account, err = accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		refills := s.applyRefills(account, now)

		pool := account.Pool(kind)
		if !pool.Consume(amount) {
			return &ServiceError{
				Operation: "consume",
				Message: fmt.Sprintf("requested %d %s, %d available",
					amount, kind, pool.Total()),
				Err: ErrInsufficientResource,
			}
		}

		account.Touch(now)
		if err := accounts.Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		if err := s.auditRefills(ctx, tx, accountID, refills, now); err != nil {
			return err
		}
		return s.txlog.WithTx(tx).Append(ctx,
			domain.NewResourceTransaction(accountID, kind, -amount, domain.ReasonConsumption, now))
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientResource) {
			log.Debug("consume rejected, insufficient balance",
				slog.String("account_id", accountID.String()),
				slog.String("kind", string(kind)),
				slog.Int("amount", amount))
		} else {
			log.Error("consume failed",
				slog.String("account_id", accountID.String()),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.Debug("consumed resource",
		slog.String("account_id", accountID.String()),
		slog.String("kind", string(kind)),
		slog.Int("amount", amount))
	return account, nil
}

// Grant implements Service.Grant.
func (s *ledgerService) Grant(
	ctx context.Context,
	accountID uuid.UUID,
	kind domain.ResourceKind,
	amount int,
	reason domain.TransactionReason,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !kind.Valid() {
		return nil, ErrUnknownResourceKind
	}

	now := s.trustedNow(ctx, log)

	var account *domain.Account
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)

		var err error
		account, err = accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		if amount == 0 {
			return nil
		}

		applied := account.Pool(kind).Grant(amount)
		if applied == 0 {
			// The whole adjustment was clamped away; nothing to persist.
			return nil
		}

		account.Touch(now)
		if err := accounts.Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return s.txlog.WithTx(tx).Append(ctx,
			domain.NewResourceTransaction(accountID, kind, applied, reason, now))
	})
	if err != nil {
		log.Error("grant failed",
			slog.String("account_id", accountID.String()),
			slog.String("kind", string(kind)),
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("granted resource",
		slog.String("account_id", accountID.String()),
		slog.String("kind", string(kind)),
		slog.Int("amount", amount),
		slog.String("reason", string(reason)))
	return account, nil
}

// GrantByEmail implements Service.GrantByEmail.
func (s *ledgerService) GrantByEmail(
	ctx context.Context,
	email string,
	kind domain.ResourceKind,
	amount int,
	reason domain.TransactionReason,
) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapAccountErr(err)
	}
	return s.Grant(ctx, account.ID, kind, amount, reason)
}

// applyRefills resets every daily pool that is due a refill at now to its
// tier allotment and returns the applied deltas. Premium accounts refill to
// the premium allotment.
func (s *ledgerService) applyRefills(account *domain.Account, now time.Time) []refill {
	premium := account.IsPremiumActive(now)
	var refills []refill
	for _, kind := range domain.ResourceKinds {
		pool := account.Pool(kind)
		if !pool.NeedsRefill(now) {
			continue
		}
		delta := pool.Refill(s.allot.For(kind, premium), now)
		refills = append(refills, refill{kind: kind, delta: delta})
	}
	return refills
}

// auditRefills appends one dailyRefresh record per refilled kind.
func (s *ledgerService) auditRefills(
	ctx context.Context,
	tx *sql.Tx,
	accountID uuid.UUID,
	refills []refill,
	now time.Time,
) error {
	txlog := s.txlog.WithTx(tx)
	for _, r := range refills {
		txn := domain.NewResourceTransaction(accountID, r.kind, r.delta, domain.ReasonDailyRefresh, now)
		if err := txlog.Append(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

// trustedNow reads the oracle, logging when the value is degraded. Refill
// decisions tolerate a degraded clock so offline play keeps working; the
// degradation is visible in the logs rather than silently trusted.
func (s *ledgerService) trustedNow(ctx context.Context, log *slog.Logger) time.Time {
	now, degraded := s.clock.Now(ctx)
	if degraded {
		log.Warn("ledger operating on degraded local clock")
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
