package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherRoundTrip(t *testing.T) {
	hasher := NewHasher()
	ctx := context.Background()

	digest, err := hasher.Hash(ctx, "Secret1!")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotContains(t, digest, "Secret1!")

	assert.True(t, hasher.Verify(ctx, "Secret1!", digest))
	assert.False(t, hasher.Verify(ctx, "secret1!", digest))
	assert.False(t, hasher.Verify(ctx, "", digest))
}

func TestHasherSaltsEveryDigest(t *testing.T) {
	hasher := NewHasher()
	ctx := context.Background()

	first, err := hasher.Hash(ctx, "same-password")
	require.NoError(t, err)
	second, err := hasher.Hash(ctx, "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify(ctx, "same-password", first))
	assert.True(t, hasher.Verify(ctx, "same-password", second))
}

func TestHasherVerifyMalformedDigest(t *testing.T) {
	hasher := NewHasher()

	assert.False(t, hasher.Verify(context.Background(), "whatever", "not-a-bcrypt-digest"))
	assert.False(t, hasher.Verify(context.Background(), "whatever", ""))
}

func TestHasherHashCancelledContext(t *testing.T) {
	hasher := NewHasher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "Secret1!")
	require.Error(t, err)
}
