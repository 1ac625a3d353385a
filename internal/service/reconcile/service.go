// Package reconcile merges a device-local guest snapshot into the durable
// account record at sign-in time. The merge runs exactly once per snapshot
// and is idempotent under retries: every merge rule is a max, OR or
// priority operator, so replaying the same snapshot cannot double-count.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Service performs the one-time guest-to-account merge.
type Service interface {
	// ReconcileGuestIntoAccount merges the local guest snapshot into the
	// account inside a single atomic transaction and deletes the snapshot
	// only after the transaction has committed. A missing or empty
	// snapshot is a successful no-op. If the transaction fails, the
	// snapshot is retained so the merge can be retried on the next
	// sign-in.
	ReconcileGuestIntoAccount(ctx context.Context, accountID uuid.UUID) error
}

// ErrAccountNotFound indicates the target account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ServiceError wraps errors from the reconciler with additional context.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
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
