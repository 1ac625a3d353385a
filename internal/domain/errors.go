package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyAccountID is returned when an account ID is missing.
	ErrEmptyAccountID = errors.New("account ID cannot be empty")

	// ErrEmptyEmail is returned when an email address is missing.
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyHashedPassword is returned when an account has no password hash.
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")

	// ErrNegativeBalance is returned when a resource pool would hold a
	// negative balance. Pools are clamped or the operation is rejected
	// before this can be persisted.
	ErrNegativeBalance = errors.New("resource balance cannot be negative")

	// ErrStreakInvariant is returned when the current streak exceeds the
	// longest streak on record.
	ErrStreakInvariant = errors.New("current streak cannot exceed longest streak")

	// ErrUnknownResourceKind is returned when a resource kind is not one of
	// the kinds the ledger tracks.
	ErrUnknownResourceKind = errors.New("unknown resource kind")

	// ErrInvalidWordStatus is returned when a word progress status is not
	// one of the known statuses.
	ErrInvalidWordStatus = errors.New("invalid word progress status")

	// ErrEntitlementActive is returned when a premium window is started
	// while another window is still live.
	ErrEntitlementActive = errors.New("premium window already active")

	// ErrTrialAlreadyUsed is returned when a trial is started on an account
	// that has already consumed its one trial.
	ErrTrialAlreadyUsed = errors.New("premium trial already used")
)
