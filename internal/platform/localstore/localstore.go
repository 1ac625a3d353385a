// Package localstore persists the guest snapshot on the device in a single
// SQLite file. The driver is CGo-free (modernc.org/sqlite) so the store
// builds anywhere the app does. There is exactly one writer per device, so
// no locking beyond SQLite's own is needed.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/store"

	_ "modernc.org/sqlite" // SQLite driver.
)

// guestStateKey is the fixed storage key under which the serialized guest
// snapshot lives.
const guestStateKey = "guest_state"

// Store wraps SQLite access for the device-local guest snapshot.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure Store implements store.GuestStateStore
var _ store.GuestStateStore = (*Store)(nil)

// Open opens or creates the local SQLite database at path and applies the
// schema. If logger is nil, a default logger is used.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With(slog.String("component", "local_store")),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate local storage: %w", err)
	}
	return nil
}

// Load implements store.GuestStateStore.Load
func (s *Store) Load(ctx context.Context) (*domain.GuestLocalState, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM blobs WHERE key = ?`, guestStateKey,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGuestStateNotFound
		}
		return nil, fmt.Errorf("failed to load guest state: %w", err)
	}

	var state domain.GuestLocalState
	if err := json.Unmarshal(payload, &state); err != nil {
		// A corrupt snapshot is unrecoverable; treat it as absent rather
		// than blocking sign-in forever.
		s.logger.Error("discarding corrupt guest state",
			slog.String("error", err.Error()))
		return nil, store.ErrGuestStateNotFound
	}
	if state.Words == nil {
		state.Words = make(map[string]domain.WordProgress)
	}
	return &state, nil
}

// Save implements store.GuestStateStore.Save
func (s *Store) Save(ctx context.Context, state *domain.GuestLocalState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize guest state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, guestStateKey, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save guest state: %w", err)
	}
	return nil
}

// Delete implements store.GuestStateStore.Delete
func (s *Store) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE key = ?`, guestStateKey)
	if err != nil {
		return fmt.Errorf("failed to delete guest state: %w", err)
	}
	return nil
}
