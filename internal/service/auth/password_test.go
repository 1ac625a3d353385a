package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexora-app/lexora-core/internal/service/auth"
)

func TestBcryptHashAndCompare(t *testing.T) {
	t.Parallel()

	verifier := auth.NewBcryptVerifier()

	hash, err := verifier.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, verifier.Compare(hash, "correct horse battery staple"))
	assert.Error(t, verifier.Compare(hash, "wrong horse battery staple"))
}

func TestBcryptPasswordLength(t *testing.T) {
	t.Parallel()

	verifier := auth.NewBcryptVerifier()

	_, err := verifier.Hash("tooshort")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = verifier.Hash(string(long))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
}
