// Package domain defines the core business entities of the Lexora
// vocabulary-learning app: accounts with their resource pools, streak
// progression, premium entitlement, device security state, per-word
// progress, and the device-local guest snapshot.
package domain
