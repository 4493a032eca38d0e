package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.GenerateTestToken("station-operator", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "station-operator", claims.Subject)
	require.Equal(t, "admin", claims.Role)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewVerifier("test-secret")
	_, err := v.Verify("not-a-jwt")
	require.Error(t, err)
}

func TestVerifyWithoutSecretAlwaysErrors(t *testing.T) {
	v := NewVerifier("")
	_, err := v.Verify("anything")
	require.Error(t, err)
}

func TestVerifyExpiredTokenFails(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.GenerateTestToken("station-operator", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	require.Error(t, err)
}
