package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errConcurrentWrite stands in for a backend serialization failure in the
// runner tests below.
var errConcurrentWrite = errors.New("concurrent account write")

func isConcurrentWrite(err error) bool {
	return errors.Is(err, errConcurrentWrite)
}

func newMockRunner(t *testing.T) (*SerializableTxRunner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSerializableTxRunner(db, isConcurrentWrite, nil), mock
}

func TestRunInTransaction_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = RunInTransaction(context.Background(), db, nil,
		func(ctx context.Context, tx *sql.Tx) error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_FunctionError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	expectedErr := errors.New("function failed")
	err = RunInTransaction(context.Background(), db, nil,
		func(ctx context.Context, tx *sql.Tx) error { return expectedErr })
	assert.ErrorIs(t, err, expectedErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	expectedErr := errors.New("commit failed")
	mock.ExpectCommit().WillReturnError(expectedErr)

	err = RunInTransaction(context.Background(), db, nil,
		func(ctx context.Context, tx *sql.Tx) error { return nil })
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.ErrorIs(t, err, expectedErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = RunInTransaction(context.Background(), db, nil,
			func(ctx context.Context, tx *sql.Tx) error { panic("boom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInAccountTx_RetriesConflictThenCommits(t *testing.T) {
	runner, mock := newMockRunner(t)

	// Two lost races, then a clean pass
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	var seen []*sql.Tx
	err := runner.RunInAccountTx(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		attempts++
		seen = append(seen, tx)
		if attempts < 3 {
			return errConcurrentWrite
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.NotSame(t, seen[0], seen[1],
		"each retry must run in a fresh transaction, not replay the stale one")
	assert.NotSame(t, seen[1], seen[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInAccountTx_SurfacesConflictAfterMaxAttempts(t *testing.T) {
	runner, mock := newMockRunner(t)

	for i := 0; i < maxTxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	attempts := 0
	err := runner.RunInAccountTx(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		attempts++
		return errConcurrentWrite
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransactionConflict)
	assert.Equal(t, maxTxAttempts, attempts, "runner must stop after the attempt budget")
	assert.NoError(t, mock.ExpectationsWereMet(),
		"no fourth transaction should be started")
}

func TestRunInAccountTx_DoesNotRetryNonConflictErrors(t *testing.T) {
	runner, mock := newMockRunner(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	expectedErr := errors.New("account invalid")
	attempts := 0
	err := runner.RunInAccountTx(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		attempts++
		return expectedErr
	})
	assert.ErrorIs(t, err, expectedErr)
	assert.NotErrorIs(t, err, ErrTransactionConflict)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInAccountTx_CommitConflictIsRetried(t *testing.T) {
	runner, mock := newMockRunner(t)

	// Serializable backends can also reject at commit time
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errConcurrentWrite)
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := runner.RunInAccountTx(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
