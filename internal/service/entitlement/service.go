// Package entitlement implements the premium/trial window state machine.
// Whether a window is active is always derived from the stored end
// timestamp and the trusted clock; nothing ticks in the background.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexora-app/lexora-core/internal/domain"
)

// Status is the derived premium state of an account at a point in time.
// It is recomputed on every query, never stored.
type Status struct {
	IsPremium      bool       `json:"is_premium"`
	IsTrial        bool       `json:"is_trial"`
	TrialEligible  bool       `json:"trial_eligible"`
	ActiveUntil    *time.Time `json:"active_until,omitempty"`
	RemainingLabel string     `json:"remaining_label,omitempty"`
}

// Service provides the premium entitlement operations.
type Service interface {
	// Status derives the current premium state of the account.
	Status(ctx context.Context, accountID uuid.UUID) (*Status, error)

	// StartTrial opens the one free trial window. It fails with
	// ErrAlreadyActive while any window is live and with
	// ErrTrialAlreadyUsed once the trial has been consumed. Starting the
	// trial immediately raises both daily allotments to the premium tier.
	StartTrial(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)

	// ActivatePurchase opens a paid premium window ending at until,
	// driven by the purchase completion signal. It also raises the daily
	// allotments to the premium tier.
	ActivatePurchase(ctx context.Context, accountID uuid.UUID, until time.Time) (*domain.Account, error)
}

// Common error types for the entitlement service.
var (
	// ErrAlreadyActive indicates a window transition was attempted while a
	// premium window is still live.
	ErrAlreadyActive = errors.New("premium window already active")

	// ErrTrialAlreadyUsed indicates the account has consumed its one trial.
	ErrTrialAlreadyUsed = errors.New("premium trial already used")

	// ErrAccountNotFound indicates the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidWindow indicates a purchase window that does not extend
	// into the future.
	ErrInvalidWindow = errors.New("premium window must end in the future")
)

// RemainingLabel renders a human-readable description of how much premium
// time is left, suitable for direct display.
func RemainingLabel(remaining time.Duration) string {
	switch {
	case remaining <= 0:
		return ""
	case remaining >= 48*time.Hour:
		return fmt.Sprintf("%d days left", int(remaining.Hours()/24))
	case remaining >= time.Hour:
		return fmt.Sprintf("%d hours left", int(remaining.Hours()))
	default:
		return "less than an hour left"
	}
}
