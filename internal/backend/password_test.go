package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.NoError(t, VerifyPassword(hash, "s3cret!"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrInvalidCredentials)

	again, err := HashPassword("s3cret!", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=x$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	} {
		assert.ErrorIs(t, VerifyPassword(encoded, "pw"), ErrInvalidPasswordHash, encoded)
	}

	assert.ErrorIs(t, VerifyPassword("$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5", "pw"), ErrIncompatiblePasswordVersion)
}
