package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound is returned by repositories when no row matches.
var ErrUserNotFound = errors.New("user not found")

// UserRecord is the persistence projection of a user, including the
// password hash. It stays inside the service layer; handlers only ever
// see User or UserListItem.
type UserRecord struct {
	ID             int64
	Username       string
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
	IsSuperuser    bool
	CreatedAt      time.Time
}

// UserListItem is a projection for the admin user listing (no password hash).
type UserListItem struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUser carries the fields required to create a user. Password arrives
// already hashed; the repository never sees plaintext.
type NewUser struct {
	Username       string
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
	IsSuperuser    bool
}

// UserPatch carries the optional fields of a user update. A nil field is
// left unchanged.
type UserPatch struct {
	FirstName      *string
	LastName       *string
	HashedPassword *string
}

func (p UserPatch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.HashedPassword == nil
}

// UserRepository defines persistence operations for users. FindByUsername
// and FindByID are the two lookups the authentication core depends on.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByID(ctx context.Context, id int64) (*UserRecord, error)
	Create(ctx context.Context, u NewUser) (int64, error)
	// Update applies the non-nil fields of patch to the user.
	Update(ctx context.Context, id int64, patch UserPatch) error
	List(ctx context.Context, page, perPage int) ([]UserListItem, int, error)
}

// PgUserRepository implements UserRepository using pgxpool. Each call
// acquires a connection from the pool for the duration of the query and
// releases it on every path.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, hashed_password, is_superuser, created_at`

func scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.HashedPassword, &u.IsSuperuser, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(r.db.QueryRow(ctx, q, username))
}

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *PgUserRepository) Create(ctx context.Context, u NewUser) (int64, error) {
	const q = `
INSERT INTO users (username, email, first_name, last_name, hashed_password, is_superuser)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, u.Username, u.Email, u.FirstName, u.LastName, u.HashedPassword, u.IsSuperuser).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PgUserRepository) Update(ctx context.Context, id int64, patch UserPatch) error {
	if patch.empty() {
		return errors.New("empty patch")
	}
	// Nil pointers arrive as NULL, so COALESCE keeps the stored value.
	const q = `
UPDATE users SET
	first_name      = COALESCE($1, first_name),
	last_name       = COALESCE($2, last_name),
	hashed_password = COALESCE($3, hashed_password)
WHERE id = $4`
	tag, err := r.db.Exec(ctx, q, patch.FirstName, patch.LastName, patch.HashedPassword, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns paginated users without password hashes.
func (r *PgUserRepository) List(ctx context.Context, page, perPage int) ([]UserListItem, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	const countQ = `SELECT COUNT(*) FROM users`
	var total int
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, username, email, first_name, last_name, is_superuser, created_at
FROM users
ORDER BY id
LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]UserListItem, 0, perPage)
	for rows.Next() {
		var u UserListItem
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsSuperuser, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}
