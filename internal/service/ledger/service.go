// Package ledger implements the tiered resource ledger: per-account daily
// and bonus pools for energy and reveal tokens, with atomic consume/grant
// and an append-only audit log.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
)

// Service provides the resource ledger operations. Every mutation runs as a
// single atomic read-modify-write over the account record; concurrent
// operations on the same account are serialized by the backing store and
// retried on conflict with a fresh read.
type Service interface {
	// EnsureDailyRefill refills each daily pool whose last refresh is on an
	// earlier calendar day than the trusted now, resetting it to the tier
	// allotment. Idempotent: a second call on the same day is a no-op.
	// Emits one dailyRefresh audit record per kind that actually refilled.
	EnsureDailyRefill(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)

	// Consume performs the daily refill check, then draws amount from the
	// daily pool and any shortfall from the bonus pool. All-or-nothing:
	// when the combined pools cannot cover the amount it fails with
	// ErrInsufficientResource and no partial deduction occurs.
	// A zero amount succeeds without writing an audit record.
	Consume(ctx context.Context, accountID uuid.UUID, kind domain.ResourceKind, amount int) (*domain.Account, error)

	// Grant adds amount to the bonus pool (never the daily pool), clamped
	// so the pool cannot go negative. Negative amounts are permitted for
	// adjustments. Emits one audit record with the supplied reason when
	// the applied delta is non-zero.
	Grant(ctx context.Context, accountID uuid.UUID, kind domain.ResourceKind, amount int, reason domain.TransactionReason) (*domain.Account, error)

	// GrantByEmail resolves an account by its email identity and grants to
	// it. Fails with ErrAccountNotFound when no account matches.
	GrantByEmail(ctx context.Context, email string, kind domain.ResourceKind, amount int, reason domain.TransactionReason) (*domain.Account, error)
}

// Common error types for the ledger service.
var (
	// ErrInsufficientResource indicates a consume requested more than the
	// combined daily and bonus pools hold.
	ErrInsufficientResource = errors.New("insufficient resource balance")

	// ErrAccountNotFound indicates the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount indicates a negative consume amount.
	ErrInvalidAmount = errors.New("amount cannot be negative")

	// ErrUnknownResourceKind indicates an unrecognized resource kind.
	ErrUnknownResourceKind = errors.New("unknown resource kind")
)

// ServiceError wraps errors from the ledger service with additional
// context, so consumers can differentiate failures with errors.As instead
// of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "consume", "grant")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
