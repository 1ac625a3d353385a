package entitlement

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
var _ Service = (*entitlementService)(nil)

// entitlementService implements the Service interface.
type entitlementService struct {
	runner    store.AccountTxRunner
	accounts  store.AccountStore
	clock     clock.Clock
	allot     domain.Allotments
	trialDays int
	logger    *slog.Logger
}

// NewService creates a new entitlement Service implementation.
func NewService(
	runner store.AccountTxRunner,
	accounts store.AccountStore,
	clk clock.Clock,
	allot domain.Allotments,
	trialDays int,
	log *slog.Logger,
) Service {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if accounts == nil {
		panic("accounts cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if trialDays <= 0 {
		trialDays = 7
	}
	if log == nil {
		log = slog.Default()
	}
	return &entitlementService{
		runner:    runner,
		accounts:  accounts,
		clock:     clk,
		allot:     allot,
		trialDays: trialDays,
		logger:    log.With(slog.String("component", "entitlement_service")),
	}
}

// Status implements Service.Status.
func (s *entitlementService) Status(
	ctx context.Context,
	accountID uuid.UUID,
) (*Status, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, mapAccountErr(err)
	}

	now, degraded := s.clock.Now(ctx)
	if degraded {
		logger.FromContextOrDefault(ctx, s.logger).
			Warn("entitlement status derived from degraded local clock")
	}

	return statusAt(&account.Entitlement, now), nil
}

// StartTrial implements Service.StartTrial.
func (s *entitlementService) StartTrial(
	ctx context.Context,
	accountID uuid.UUID,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, degraded := s.clock.Now(ctx)
	if degraded {
		log.Warn("starting trial on degraded local clock")
	}

	var account *domain.Account
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)

		var err error
		account, err = accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		if err := account.Entitlement.StartTrial(now, s.trialDays); err != nil {
			return mapTransitionErr(err)
		}
		s.raiseAllotments(account)

		account.Touch(now)
		return accounts.Update(ctx, account)
	})
	if err != nil {
		log.Error("failed to start trial",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("trial started",
		slog.String("account_id", accountID.String()),
		slog.Time("active_until", *account.PremiumActiveUntil))
	return account, nil
}

// ActivatePurchase implements Service.ActivatePurchase.
func (s *entitlementService) ActivatePurchase(
	ctx context.Context,
	accountID uuid.UUID,
	until time.Time,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, degraded := s.clock.Now(ctx)
	if degraded {
		log.Warn("activating purchase on degraded local clock")
	}
	if !until.After(now) {
		return nil, ErrInvalidWindow
	}

	var account *domain.Account
	err := s.runner.RunInAccountTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		accounts := s.accounts.WithTx(tx)

		var err error
		account, err = accounts.GetByID(ctx, accountID)
		if err != nil {
			return mapAccountErr(err)
		}

		if err := account.Entitlement.ActivatePurchase(now, until); err != nil {
			return mapTransitionErr(err)
		}
		s.raiseAllotments(account)

		account.Touch(now)
		return accounts.Update(ctx, account)
	})
	if err != nil {
		log.Error("failed to activate purchase",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("purchase activated",
		slog.String("account_id", accountID.String()),
		slog.Time("active_until", until))
	return account, nil
}

// raiseAllotments lifts both daily pools to the premium allotment the
// moment a window opens, so the learner does not wait for the next refill.
func (s *entitlementService) raiseAllotments(account *domain.Account) {
	for _, kind := range domain.ResourceKinds {
		pool := account.Pool(kind)
		if premium := s.allot.For(kind, true); pool.Daily < premium {
			pool.Daily = premium
		}
	}
}

// statusAt derives the status of an entitlement at now.
func statusAt(e *domain.Entitlement, now time.Time) *Status {
	st := &Status{
		IsPremium:     e.IsPremiumActive(now),
		IsTrial:       e.IsTrialActive(now),
		TrialEligible: e.TrialEligible(now),
	}
	if st.IsPremium {
		st.ActiveUntil = e.PremiumActiveUntil
		st.RemainingLabel = RemainingLabel(e.PremiumRemaining(now))
	}
	return st
}

// mapAccountErr converts store-level not-found errors to the service
// sentinel.
func mapAccountErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, err)
	}
	return err
}

// mapTransitionErr converts domain transition errors to the service
// sentinels.
func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrEntitlementActive):
		return ErrAlreadyActive
	case errors.Is(err, domain.ErrTrialAlreadyUsed):
		return ErrTrialAlreadyUsed
	case errors.Is(err, domain.ErrValidation):
		return ErrInvalidWindow
	}
	return err
}
