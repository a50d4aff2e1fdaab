package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions and outcomes. Outcomes other than AuditGranted name the
// internal rejection cause; they are stored for operators and never
// surfaced to the caller that was rejected.
const (
	AuditActionLogin  = "login"
	AuditActionReauth = "reauth"

	AuditGranted          = "granted"
	AuditEmptyCredentials = "empty_credentials"
	AuditUnknownUser      = "unknown_user"
	AuditBadPassword      = "bad_password"
	AuditNotSuperuser     = "not_superuser"
	AuditInvalidToken     = "invalid_token"
	AuditBadSubject       = "bad_subject"
	AuditUserMissing      = "user_missing"
)

// AuditEntry is one recorded authentication attempt.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	RemoteAddr string    `json:"remote_addr"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditRepository persists authentication attempts for later review.
type AuditRepository interface {
	Record(ctx context.Context, username, action, outcome, remoteAddr string) error
	List(ctx context.Context, page, perPage int) ([]AuditEntry, int, error)
}

type remoteAddrKey struct{}

// WithRemoteAddr attaches the caller's network address to the context.
// The HTTP layer sets it per request; the gate reads it back when
// recording audit entries.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey{}, addr)
}

func remoteAddrFrom(ctx context.Context) string {
	addr, _ := ctx.Value(remoteAddrKey{}).(string)
	return addr
}

// PgAuditRepository implements AuditRepository using pgxpool.
type PgAuditRepository struct {
	db *pgxpool.Pool
}

func NewPgAuditRepository(db *pgxpool.Pool) *PgAuditRepository {
	return &PgAuditRepository{db: db}
}

func (r *PgAuditRepository) Record(ctx context.Context, username, action, outcome, remoteAddr string) error {
	const q = `INSERT INTO auth_audit (username, action, outcome, remote_addr) VALUES ($1,$2,$3,$4)`
	_, err := r.db.Exec(ctx, q, username, action, outcome, remoteAddr)
	return err
}

func (r *PgAuditRepository) List(ctx context.Context, page, perPage int) ([]AuditEntry, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	const countQ = `SELECT COUNT(*) FROM auth_audit`
	var total int
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, username, action, outcome, remote_addr, created_at
FROM auth_audit
ORDER BY id DESC
LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]AuditEntry, 0, perPage)
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Outcome, &e.RemoteAddr, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
