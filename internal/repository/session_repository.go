package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionRow mirrors the 'sessions' table.  The API token is stored sealed;
// the user record is kept as the JSON the API returned.
type SessionRow struct {
	ID          string
	UserID      int64
	UserJSON    []byte
	TokenSealed []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

// SessionSchema creates the sessions table when it does not exist.
const SessionSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id           CHAR(36)       NOT NULL PRIMARY KEY,
	user_id      BIGINT         NOT NULL,
	user_json    JSON           NOT NULL,
	token_sealed VARBINARY(512) NOT NULL,
	created_at   DATETIME       NOT NULL,
	updated_at   DATETIME       NOT NULL,
	expires_at   DATETIME       NOT NULL,
	KEY idx_sessions_user (user_id),
	KEY idx_sessions_expires (expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// SessionRepo persists browser sessions in MySQL.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// EnsureSchema creates the table on first start.
func (r *SessionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, SessionSchema)
	return err
}

// Upsert inserts the row or replaces the user and token of an existing one.
func (r *SessionRepo) Upsert(ctx context.Context, s SessionRow) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, user_json, token_sealed, created_at, updated_at, expires_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE user_id=VALUES(user_id), user_json=VALUES(user_json),
		   token_sealed=VALUES(token_sealed), updated_at=VALUES(updated_at), expires_at=VALUES(expires_at)`,
		s.ID, s.UserID, s.UserJSON, s.TokenSealed, s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
	return err
}

// Get returns a non-expired session row or ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (SessionRow, error) {
	var s SessionRow
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,user_json,token_sealed,created_at,updated_at,expires_at FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.UserID, &s.UserJSON, &s.TokenSealed, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{}, ErrNotFound
	}
	if err != nil {
		return SessionRow{}, err
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		return SessionRow{}, ErrNotFound
	}
	return s, nil
}

// Delete removes a session.  Deleting a missing row is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id=?", id)
	return err
}

// DeleteExpired prunes expired rows and reports how many were removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
