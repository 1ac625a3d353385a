package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/clock"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/platform/logger"
	"github.com/lexora-app/lexora-core/internal/service/devicelock"
	"github.com/lexora-app/lexora-core/internal/service/reconcile"
	"github.com/lexora-app/lexora-core/internal/store"
)

// Session is the result of a successful sign-in or registration.
type Session struct {
	AccountID uuid.UUID `json:"account_id"`
	Token     string    `json:"token"`
}

// LoginService ties together credential verification, the device throttle
// and the guest reconciler. Signing in is the transition that turns a guest
// session into an authenticated one, so the reconciler fires here.
type LoginService interface {
	// Register creates an account with the default allotments, issues a
	// session, and reconciles any guest snapshot into the new account.
	Register(ctx context.Context, email, password, deviceID string) (*Session, error)

	// Login verifies credentials behind the device throttle, issues a
	// session, and reconciles any guest snapshot into the account.
	Login(ctx context.Context, email, password, deviceID string) (*Session, error)
}

// loginService implements the LoginService interface.
type loginService struct {
	accounts   store.AccountStore
	locks      devicelock.Service
	reconciler reconcile.Service
	tokens     TokenService
	verifier   PasswordVerifier
	hasher     PasswordHasher
	clock      clock.Clock
	allot      domain.Allotments
	logger     *slog.Logger
}

// Ensure loginService implements LoginService interface
var _ LoginService = (*loginService)(nil)

// NewLoginService creates a new LoginService implementation.
func NewLoginService(
	accounts store.AccountStore,
	locks devicelock.Service,
	reconciler reconcile.Service,
	tokens TokenService,
	verifier PasswordVerifier,
	hasher PasswordHasher,
	clk clock.Clock,
	allot domain.Allotments,
	log *slog.Logger,
) LoginService {
	if accounts == nil {
		panic("accounts cannot be nil")
	}
	if locks == nil {
		panic("locks cannot be nil")
	}
	if reconciler == nil {
		panic("reconciler cannot be nil")
	}
	if tokens == nil {
		panic("tokens cannot be nil")
	}
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &loginService{
		accounts:   accounts,
		locks:      locks,
		reconciler: reconciler,
		tokens:     tokens,
		verifier:   verifier,
		hasher:     hasher,
		clock:      clk,
		allot:      allot,
		logger:     log.With(slog.String("component", "login_service")),
	}
}

// Register implements LoginService.Register.
func (s *loginService) Register(
	ctx context.Context,
	email, password, deviceID string,
) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now, degraded := s.clock.Now(ctx)
	if degraded {
		log.Warn("registering account on degraded local clock")
	}

	account, err := domain.NewAccount(email, hashed, s.allot, now)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info("account registered",
		slog.String("account_id", account.ID.String()))

	return s.openSession(ctx, log, account.ID)
}

// Login implements LoginService.Login.
func (s *loginService) Login(
	ctx context.Context,
	email, password, deviceID string,
) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.locks.AssertNotLocked(ctx, deviceID); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Unknown emails still count against the device throttle so
			// probing is as expensive as guessing passwords.
			return nil, s.failLogin(ctx, log, deviceID)
		}
		return nil, err
	}

	if err := s.verifier.Compare(account.HashedPassword, password); err != nil {
		return nil, s.failLogin(ctx, log, deviceID)
	}

	if err := s.locks.ResetFailedLogins(ctx, deviceID); err != nil {
		// Never block a valid login on throttle bookkeeping.
		log.Warn("failed to reset login throttle",
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()))
	}

	return s.openSession(ctx, log, account.ID)
}

// failLogin records the failure against the device and hides whether the
// email or the password was wrong. A tripped lock takes precedence over the
// credential error.
func (s *loginService) failLogin(ctx context.Context, log *slog.Logger, deviceID string) error {
	if err := s.locks.RecordFailedLogin(ctx, deviceID); err != nil {
		if errors.Is(err, devicelock.ErrDeviceLocked) {
			return err
		}
		log.Warn("failed to record failed login",
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()))
	}
	return ErrInvalidCredentials
}

// openSession issues a token and fires the guest reconciler. A failed
// reconciliation does not fail the sign-in: the snapshot is retained and
// the merge retries on the next sign-in.
func (s *loginService) openSession(
	ctx context.Context,
	log *slog.Logger,
	accountID uuid.UUID,
) (*Session, error) {
	token, err := s.tokens.GenerateToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.reconciler.ReconcileGuestIntoAccount(ctx, accountID); err != nil {
		log.Error("guest reconciliation failed during sign-in",
			slog.String("account_id", accountID.String()),
			slog.String("error", err.Error()))
	}

	return &Session{AccountID: accountID, Token: token}, nil
}
