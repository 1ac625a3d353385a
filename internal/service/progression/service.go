// Package progression implements the streak and daily-mastery tracker,
// driven by calendar-day transitions observed against the trusted clock.
package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
)

// Service records learner activity and updates streak state. All mutations
// run inside the same atomic transaction boundary as the account read, so
// two racing mastery events cannot lose an update.
type Service interface {
	// RecordActivity notes that the learner did something today and runs
	// the streak day-transition rules.
	RecordActivity(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)

	// RecordAnswer records one practice answer for a word, maintaining its
	// attempts, hint flag and inProgress status, and counts as activity.
	RecordAnswer(ctx context.Context, accountID uuid.UUID, wordID string, correct, usedHint bool) (*domain.WordProgress, error)

	// RecordMastery marks a word mastered and, when the word was not
	// already mastered, bumps the same-day mastery counter.
	RecordMastery(ctx context.Context, accountID uuid.UUID, wordID string) (*domain.Account, error)
}

// Common error types for the progression service.
var (
	// ErrAccountNotFound indicates the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmptyWordID indicates a progress operation without a word.
	ErrEmptyWordID = errors.New("word ID cannot be empty")
)

// ServiceError wraps errors from the progression service with additional
// context.
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
