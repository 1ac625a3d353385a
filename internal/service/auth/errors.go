// Package auth implements the identity/session side of sign-in: password
// hashing and verification, HMAC session tokens, and the login flow that
// drives the device throttle and fires the guest reconciler.
package auth

import "errors"

// Common error types for the auth service.
var (
	// ErrInvalidCredentials indicates the email/password pair did not
	// match. The same error covers unknown emails so callers cannot probe
	// which addresses are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailExists indicates registration with an already-taken email.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidToken indicates a session token that failed validation.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken indicates a session token past its expiry.
	ErrExpiredToken = errors.New("session token expired")

	// ErrPasswordTooShort is returned when a password has fewer than 12
	// characters.
	ErrPasswordTooShort = errors.New("password must be at least 12 characters long")

	// ErrPasswordTooLong is returned when a password exceeds bcrypt's
	// 72-character limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters long")
)
