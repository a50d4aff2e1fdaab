package core

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService(nil)
	require.Error(t, err)
}

func TestToken_Roundtrip(t *testing.T) {
	svc, err := NewTokenService([]byte("roundtrip-secret"))
	require.NoError(t, err)

	tok, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	subject, ok := svc.Validate(tok)
	require.True(t, ok)
	require.Equal(t, "42", subject)
}

func TestToken_DifferentSubjectsDiffer(t *testing.T) {
	svc, err := NewTokenService([]byte("roundtrip-secret"))
	require.NoError(t, err)

	tok1, err := svc.Issue("123", time.Hour)
	require.NoError(t, err)
	tok2, err := svc.Issue("456", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, tok1, tok2)
}

func TestToken_ExpiredRejected(t *testing.T) {
	svc, err := NewTokenService([]byte("expiry-secret"))
	require.NoError(t, err)

	// Issued already expired.
	tok, err := svc.Issue("42", -time.Hour)
	require.NoError(t, err)

	_, ok := svc.Validate(tok)
	require.False(t, ok)
}

func TestToken_WrongSecretRejected(t *testing.T) {
	issuer, err := NewTokenService([]byte("right-secret"))
	require.NoError(t, err)
	verifier, err := NewTokenService([]byte("wrong-secret"))
	require.NoError(t, err)

	tok, err := issuer.Issue("42", time.Hour)
	require.NoError(t, err)

	_, ok := verifier.Validate(tok)
	require.False(t, ok)
}

func TestToken_MalformedRejected(t *testing.T) {
	svc, err := NewTokenService([]byte("malformed-secret"))
	require.NoError(t, err)

	for _, tok := range []string{
		"",
		"invalid.token.here",
		"not.a.valid.jwt.token",
		"header.payload",
		"header",
		"a.b.c.d",
	} {
		_, ok := svc.Validate(tok)
		require.False(t, ok, "token %q must be rejected", tok)
	}
}

func TestToken_MissingSubjectRejected(t *testing.T) {
	svc, err := NewTokenService([]byte("subject-secret"))
	require.NoError(t, err)

	tok, err := svc.Issue("", time.Hour)
	require.NoError(t, err)

	_, ok := svc.Validate(tok)
	require.False(t, ok)
}

func TestToken_AlgorithmIsPinned(t *testing.T) {
	secret := []byte("pinned-secret")
	svc, err := NewTokenService(secret)
	require.NoError(t, err)

	// Correct secret but a different HMAC variant must not validate.
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, ok := svc.Validate(tok)
	require.False(t, ok)
}

func TestToken_MissingExpiryRejected(t *testing.T) {
	secret := []byte("exp-required-secret")
	svc, err := NewTokenService(secret)
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).SignedString(secret)
	require.NoError(t, err)

	_, ok := svc.Validate(tok)
	require.False(t, ok)
}
