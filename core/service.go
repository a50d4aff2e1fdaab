package core

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"
)

// AdminAuth authenticates operators of the admin surface. It wires the
// user repository, password checking and the token service. All expected
// failures come back as ErrInvalidCredentials or ErrNotAuthenticated with
// no sub-cause; the precise cause goes only to the audit log.
type AdminAuth struct {
	users    UserRepository
	tokens   *TokenService
	audit    AuditRepository
	tokenTTL time.Duration
}

// NewAdminAuth constructs the gate. audit may be nil, in which case
// attempts are not recorded.
func NewAdminAuth(users UserRepository, tokens *TokenService, audit AuditRepository, tokenTTL time.Duration) *AdminAuth {
	return &AdminAuth{users: users, tokens: tokens, audit: audit, tokenTTL: tokenTTL}
}

// Authenticate verifies a username/password pair without applying any
// privilege policy. Surfaces that require a superuser use Login instead.
func (a *AdminAuth) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, cause := a.checkCredentials(ctx, username, password)
	if cause != "" {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login implements the administrative login path: credentials must be
// correct and the user must be a superuser. Correct credentials without
// the privilege are rejected identically to wrong credentials so the
// response cannot be used to probe accounts.
func (a *AdminAuth) Login(ctx context.Context, username, password string) (string, User, error) {
	u, cause := a.checkCredentials(ctx, username, password)
	if cause == "" && !u.IsSuperuser {
		cause = AuditNotSuperuser
	}
	if cause != "" {
		a.record(ctx, username, AuditActionLogin, cause)
		return "", User{}, ErrInvalidCredentials
	}

	token, err := a.tokens.IssueForUser(u.ID, a.tokenTTL)
	if err != nil {
		// Signing cannot fail with a valid secret; treat it as a plain
		// rejection rather than leaking an internal error.
		log.Printf("token issue failed for user %d: %v", u.ID, err)
		return "", User{}, ErrInvalidCredentials
	}

	a.record(ctx, username, AuditActionLogin, AuditGranted)
	return token, u, nil
}

// Reauthenticate resolves a previously issued token back to a superuser.
// Missing token, failed validation, a vanished user and a user without
// the privilege are all rejected identically. Only rejections are
// audited; recording every accepted request would swamp the table.
func (a *AdminAuth) Reauthenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrNotAuthenticated
	}

	subject, ok := a.tokens.Validate(token)
	if !ok {
		a.record(ctx, "", AuditActionReauth, AuditInvalidToken)
		return User{}, ErrNotAuthenticated
	}

	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		a.record(ctx, "", AuditActionReauth, AuditBadSubject)
		return User{}, ErrNotAuthenticated
	}

	u, err := a.users.FindByID(ctx, id)
	if err != nil || u == nil {
		a.record(ctx, subject, AuditActionReauth, AuditUserMissing)
		return User{}, ErrNotAuthenticated
	}
	if !u.IsSuperuser {
		a.record(ctx, u.Username, AuditActionReauth, AuditNotSuperuser)
		return User{}, ErrNotAuthenticated
	}

	return userFromRecord(u), nil
}

// checkCredentials runs the credential half of the protocol and reports
// the internal cause of failure, or "" on success.
func (a *AdminAuth) checkCredentials(ctx context.Context, username, password string) (User, string) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, AuditEmptyCredentials
	}

	u, err := a.users.FindByUsername(ctx, username)
	if err != nil || u == nil {
		return User{}, AuditUnknownUser
	}

	if !CheckPassword(password, u.HashedPassword) {
		return User{}, AuditBadPassword
	}

	return userFromRecord(u), ""
}

func (a *AdminAuth) record(ctx context.Context, username, action, outcome string) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Record(ctx, username, action, outcome, remoteAddrFrom(ctx)); err != nil {
		log.Printf("audit record failed (%s/%s): %v", action, outcome, err)
	}
}

func userFromRecord(u *UserRecord) User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}
