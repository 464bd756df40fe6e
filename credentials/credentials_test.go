package credentials_test

import (
	"testing"

	"github.com/goliatone/go-storefront/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	store := credentials.New(0)

	salt, err := store.NewSalt()
	require.NoError(t, err)

	first, err := store.Hash("Abcdef1!", salt)
	require.NoError(t, err)

	second, err := store.Hash("Abcdef1!", salt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashVariesBySalt(t *testing.T) {
	store := credentials.New(0)

	saltA, err := store.NewSalt()
	require.NoError(t, err)
	saltB, err := store.NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)

	hashA, err := store.Hash("Abcdef1!", saltA)
	require.NoError(t, err)
	hashB, err := store.Hash("Abcdef1!", saltB)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

func TestVerifyRoundTrip(t *testing.T) {
	store := credentials.New(1000)

	salt, err := store.NewSalt()
	require.NoError(t, err)

	hash, err := store.Hash("S3cret!pass", salt)
	require.NoError(t, err)

	assert.True(t, store.Verify(hash, salt, "S3cret!pass"))
	assert.False(t, store.Verify(hash, salt, "s3cret!pass"))
	assert.False(t, store.Verify(hash, salt, ""))
}

func TestVerifyFailsClosedWithoutStoredHash(t *testing.T) {
	store := credentials.New(1000)

	salt, err := store.NewSalt()
	require.NoError(t, err)

	// OAuth-only accounts have no stored hash or salt.
	assert.False(t, store.Verify("", salt, "whatever"))
	assert.False(t, store.Verify("deadbeef", "", "whatever"))
}

func TestIterationCountChangesDigest(t *testing.T) {
	fast := credentials.New(1000)
	slow := credentials.New(2000)

	salt, err := fast.NewSalt()
	require.NoError(t, err)

	hashFast, err := fast.Hash("Abcdef1!", salt)
	require.NoError(t, err)
	hashSlow, err := slow.Hash("Abcdef1!", salt)
	require.NoError(t, err)

	assert.NotEqual(t, hashFast, hashSlow)
}
