package core

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signingAlgorithm is pinned at HS256. Validation is restricted to the
// same algorithm so a crafted token cannot downgrade to "none" or switch
// to an asymmetric scheme.
const signingAlgorithm = "HS256"

// TokenService issues and validates signed access tokens. The signing
// secret is injected at construction and read-only afterwards; a single
// instance is safe for concurrent use.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	return &TokenService{secret: secret}, nil
}

// Issue returns a self-contained token bound to subject, expiring after
// lifetime. The output is opaque to callers; they only store and present
// it back.
func (s *TokenService) Issue(subject string, lifetime time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate returns the subject a token is bound to. An empty input, a
// malformed encoding, a wrong signature, a missing subject and an expired
// token all report !ok with no further distinction; callers must branch
// only on the fact of rejection.
func (s *TokenService) Validate(token string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{signingAlgorithm}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// IssueForUser binds a token to a numeric user id.
func (s *TokenService) IssueForUser(userID int64, lifetime time.Duration) (string, error) {
	return s.Issue(strconv.FormatInt(userID, 10), lifetime)
}
