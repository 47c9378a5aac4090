package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSessionDerivesWalletPair(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.InitSession(context.Background(), testKeyA)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, env.eoa.Hex(), resp.EOAAddress)
	assert.Equal(t, env.safeHex, resp.SafeAddress)

	// Same key, same pair.
	again, err := env.svc.InitSession(context.Background(), testKeyA)
	require.NoError(t, err)
	assert.Equal(t, resp.SafeAddress, again.SafeAddress)
}

func TestInitSessionRejectsBadKey(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.InitSession(context.Background(), "zzzz")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrValidation))
}

func TestDeriveCredentialsColdPath(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.DeriveCredentials(context.Background(), testKeyA)
	require.NoError(t, err)

	assert.True(t, resp.HasCredentials)
	assert.Equal(t, 1, env.creds.callCount())

	sess, found, err := env.store.Load(context.Background(), env.eoa.Hex())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, sess.HasCredentials())
	assert.Equal(t, "key", sess.ApiKey)
}

func TestDeriveCredentialsWarmCacheSkipsKey(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.DeriveCredentials(context.Background(), testKeyA)
	require.NoError(t, err)
	signsAfterCold := env.auth.signs

	resp, err := env.svc.DeriveCredentials(context.Background(), testKeyA)
	require.NoError(t, err)
	assert.True(t, resp.HasCredentials)

	assert.Equal(t, 1, env.creds.callCount(), "warm cache must not re-derive")
	assert.Equal(t, signsAfterCold, env.auth.signs, "warm cache must not exercise the key")
}

func TestDeriveCredentialsIncompleteIsError(t *testing.T) {
	env := newTestEnv()
	env.creds.creds = &venue.Credentials{Key: "key", Secret: "secret"} // no passphrase

	_, err := env.svc.DeriveCredentials(context.Background(), testKeyA)
	require.Error(t, err)

	sess, found, _ := env.store.Load(context.Background(), env.eoa.Hex())
	if found {
		assert.False(t, sess.HasCredentials(), "partial credentials are never cached")
	}
}

func TestDeriveCredentialsVenueFailure(t *testing.T) {
	env := newTestEnv()
	env.creds.err = errors.New("venue 500")

	_, err := env.svc.DeriveCredentials(context.Background(), testKeyA)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrExecution))
}

func TestClientsForSafeRequiresSession(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.svc.ClientsForSafe(context.Background(), env.safeHex)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrPrecondition))

	_, err2 := env.svc.InitSession(context.Background(), testKeyA)
	require.NoError(t, err2)

	clients, sess, err := env.svc.ClientsForSafe(context.Background(), env.safeHex)
	require.NoError(t, err)
	assert.Equal(t, env.safe, clients.Safe)
	assert.Equal(t, env.eoa.Hex(), sess.EOAAddress)
}

func TestClientsForSafeCaseInsensitive(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.InitSession(context.Background(), testKeyA)
	require.NoError(t, err)

	upper := "0x" + strings.ToUpper(env.safeHex[2:])
	clients, _, err := env.svc.ClientsForSafe(context.Background(), upper)
	require.NoError(t, err)
	assert.Equal(t, env.safe, clients.Safe)
}

func TestSessionsAreIsolatedPerEOA(t *testing.T) {
	env := newTestEnv()

	a, err := env.svc.InitSession(context.Background(), testKeyA)
	require.NoError(t, err)
	b, err := env.svc.InitSession(context.Background(), testKeyB)
	require.NoError(t, err)

	assert.NotEqual(t, a.EOAAddress, b.EOAAddress)
	assert.NotEqual(t, a.SafeAddress, b.SafeAddress)
}
