package progression_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexora-app/lexora-core/internal/clock"
	"github.com/lexora-app/lexora-core/internal/domain"
	"github.com/lexora-app/lexora-core/internal/service/progression"
	"github.com/lexora-app/lexora-core/internal/store"
)

// fakeRunner executes the transaction function directly.
type fakeRunner struct{}

func (r *fakeRunner) RunInAccountTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// memAccountStore is an in-memory AccountStore counting updates.
type memAccountStore struct {
	accounts map[uuid.UUID]*domain.Account
	updates  int
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (s *memAccountStore) Create(ctx context.Context, account *domain.Account) error {
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *memAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *memAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (s *memAccountStore) Update(ctx context.Context, account *domain.Account) error {
	if _, ok := s.accounts[account.ID]; !ok {
		return store.ErrAccountNotFound
	}
	copied := *account
	s.accounts[account.ID] = &copied
	s.updates++
	return nil
}

func (s *memAccountStore) WithTx(tx *sql.Tx) store.AccountStore { return s }

// memProgressStore is an in-memory WordProgressStore.
type memProgressStore struct {
	records map[string]*domain.WordProgress // keyed by wordID, single account
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{records: make(map[string]*domain.WordProgress)}
}

func (s *memProgressStore) Get(
	ctx context.Context,
	accountID uuid.UUID,
	wordID string,
) (*domain.WordProgress, error) {
	record, ok := s.records[wordID]
	if !ok {
		return nil, store.ErrWordProgressNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *memProgressStore) GetAllForAccount(
	ctx context.Context,
	accountID uuid.UUID,
) ([]domain.WordProgress, error) {
	var out []domain.WordProgress
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *memProgressStore) Upsert(
	ctx context.Context,
	accountID uuid.UUID,
	progress *domain.WordProgress,
) error {
	copied := *progress
	s.records[progress.WordID] = &copied
	return nil
}

func (s *memProgressStore) WithTx(tx *sql.Tx) store.WordProgressStore { return s }

func newTestService(
	t *testing.T,
	now time.Time,
) (progression.Service, *memAccountStore, *memProgressStore, *clock.Manual, *domain.Account) {
	t.Helper()

	accounts := newMemAccountStore()
	progressStore := newMemProgressStore()
	clk := clock.NewManual(now)

	account, err := domain.NewAccount(
		"learner@example.com", "hashedpassword123", domain.DefaultAllotments(), now)
	require.NoError(t, err)
	require.NoError(t, accounts.Create(context.Background(), account))

	svc := progression.NewService(&fakeRunner{}, accounts, progressStore, clk, nil)
	return svc, accounts, progressStore, clk, account
}

func TestRecordActivityStartsStreak(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _, _, account := newTestService(t, now)

	updated, err := svc.RecordActivity(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Equal(t, 1, updated.LongestStreak)
}

func TestRecordActivitySameDaySkipsWrite(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, accounts, _, clk, account := newTestService(t, now)
	ctx := context.Background()

	_, err := svc.RecordActivity(ctx, account.ID)
	require.NoError(t, err)
	writesAfterFirst := accounts.updates

	clk.Advance(4 * time.Hour)
	updated, err := svc.RecordActivity(ctx, account.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Equal(t, writesAfterFirst, accounts.updates,
		"a same-day activity that changes nothing must not write")
}

func TestRecordActivityAcrossDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _, clk, account := newTestService(t, now)
	ctx := context.Background()

	_, err := svc.RecordActivity(ctx, account.ID)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	updated, err := svc.RecordActivity(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentStreak)

	// Three-day gap restarts the current streak, longest survives
	clk.Advance(3 * 24 * time.Hour)
	updated, err = svc.RecordActivity(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Equal(t, 2, updated.LongestStreak)
}

func TestRecordAnswerMaintainsWordRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, accounts, _, _, account := newTestService(t, now)
	ctx := context.Background()

	record, err := svc.RecordAnswer(ctx, account.ID, "w1", false, true)
	require.NoError(t, err)
	assert.Equal(t, domain.WordStatusInProgress, record.Status,
		"first answer moves the word out of unknown")
	assert.Equal(t, 1, record.Attempts)
	assert.True(t, record.UsedHint)
	require.NotNil(t, record.LastAnswerAt)
	assert.True(t, record.LastAnswerAt.Equal(now))

	// Hints stay sticky, attempts accumulate
	record, err = svc.RecordAnswer(ctx, account.ID, "w1", true, false)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Attempts)
	assert.True(t, record.UsedHint)

	// Answering counts as activity
	stored, err := accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStreak)
}

func TestRecordMasteryBumpsDailyCounter(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, progressStore, _, account := newTestService(t, now)
	ctx := context.Background()

	updated, err := svc.RecordMastery(ctx, account.ID, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TodaysMastered)

	record, err := progressStore.Get(ctx, account.ID, "w1")
	require.NoError(t, err)
	assert.Equal(t, domain.WordStatusMastered, record.Status)

	// Re-mastering an already mastered word must not inflate the counter
	updated, err = svc.RecordMastery(ctx, account.ID, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TodaysMastered)

	updated, err = svc.RecordMastery(ctx, account.ID, "w2")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TodaysMastered)
}

func TestRecordMasteryCounterResetsNextDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _, clk, account := newTestService(t, now)
	ctx := context.Background()

	_, err := svc.RecordMastery(ctx, account.ID, "w1")
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	updated, err := svc.RecordMastery(ctx, account.ID, "w2")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TodaysMastered, "the counter restarts on a new day")
	assert.Equal(t, 2, updated.CurrentStreak)
}

func TestProgressionBadInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _, _, account := newTestService(t, now)
	ctx := context.Background()

	_, err := svc.RecordAnswer(ctx, account.ID, "", true, false)
	assert.ErrorIs(t, err, progression.ErrEmptyWordID)

	_, err = svc.RecordMastery(ctx, account.ID, "")
	assert.ErrorIs(t, err, progression.ErrEmptyWordID)

	_, err = svc.RecordActivity(ctx, uuid.New())
	assert.ErrorIs(t, err, progression.ErrAccountNotFound)
}
