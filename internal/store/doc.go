// Package store defines the persistence interfaces for accounts, the
// resource audit log, device security state, word progress and the
// device-local guest snapshot, together with the transaction helpers that
// give the ledger its atomic read-modify-write guarantee.
package store
