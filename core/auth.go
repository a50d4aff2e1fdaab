package core

import (
	"context"
	"errors"
	"time"
)

// User represents an authenticated principal returned to handlers. It
// never carries the password hash.
type User struct {
	ID          int64
	Username    string
	Email       string
	FirstName   string
	LastName    string
	IsSuperuser bool
	CreatedAt   time.Time
}

var (
	// ErrInvalidCredentials is returned when a login is refused. Unknown
	// user, wrong password and missing privilege are deliberately
	// indistinguishable: the caller learns only that login failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned when a presented token does not
	// resolve to a permitted user, for any reason.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AuthService defines authentication behaviour for the admin surface.
type AuthService interface {
	// Authenticate verifies a username/password pair without applying
	// any privilege policy.
	Authenticate(ctx context.Context, username, password string) (User, error)
	// Login checks credentials and the superuser policy, and on success
	// returns an access token bound to the user together with the user.
	Login(ctx context.Context, username, password string) (string, User, error)
	// Reauthenticate resolves a previously issued token back to a
	// permitted user.
	Reauthenticate(ctx context.Context, token string) (User, error)
}
