package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-session-secret")

func TestSignSession_RoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).UTC()
	token, err := SignSession("open-123", "app-1", "Jane", exp, testSecret)
	require.NoError(t, err)

	claims, err := SessionClaimsFromToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "open-123", claims.Subject)
	assert.Equal(t, "app-1", claims.AppID)
	assert.Equal(t, "Jane", claims.Name)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestSignSession_EmptySubject(t *testing.T) {
	t.Parallel()

	_, err := SignSession("", "app", "", time.Now().Add(time.Hour), testSecret)
	assert.Error(t, err)
}

func TestSessionClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := SignSession("open-1", "app", "", time.Now().Add(-time.Minute), testSecret)
	require.NoError(t, err)

	otherKey, err := SignSession("open-1", "app", "", time.Now().Add(time.Hour), []byte("other"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "open-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":   expired,
		"wrong key": otherKey,
		"alg none":  none,
		"garbage":   "not-a-jwt",
	} {
		_, err := SessionClaimsFromToken(tok, testSecret)
		assert.ErrorIs(t, err, ErrInvalidSession, name)
	}
}
