package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *TokenCodec {
	return NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.SignAccess("user-1")
	require.NoError(t, err)

	userID, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.SignRefresh("user-1")
	require.NoError(t, err)

	userID, err := codec.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenTypesNotInterchangeable(t *testing.T) {
	codec := newTestCodec()

	access, err := codec.SignAccess("user-1")
	require.NoError(t, err)
	refresh, err := codec.SignRefresh("user-1")
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = codec.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	codec := NewTokenCodec("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	access, err := codec.SignAccess("user-1")
	require.NoError(t, err)
	refresh, err := codec.SignRefresh("user-1")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = codec.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSecretRejected(t *testing.T) {
	codec := newTestCodec()
	other := NewTokenCodec("other-access", "other-refresh", 15*time.Minute, 168*time.Hour)

	token, err := other.SignAccess("user-1")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	codec := newTestCodec()

	for _, token := range []string{"", "garbage", "aa.bb.cc"} {
		_, err := codec.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestSignedTokensAreUnique(t *testing.T) {
	codec := newTestCodec()

	first, err := codec.SignRefresh("user-1")
	require.NoError(t, err)
	second, err := codec.SignRefresh("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestOpaqueToken(t *testing.T) {
	codec := newTestCodec()

	raw, hash, err := codec.NewOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, raw, opaqueTokenBytes*2)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, hash, codec.HashOpaqueToken(raw))

	other, _, err := codec.NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}
