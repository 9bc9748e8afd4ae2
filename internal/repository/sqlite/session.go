package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/model"
	"github.com/sakif/quotefeed/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession inserts a new session row. The token is generated here — an xid
// is unguessable enough only because the cookie layer additionally signs
// it; the row itself is the source of truth for "is this session live".
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	session.Token = xid.New().String()
	session.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		session.Token,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", session.UserID, err)
	}

	return nil
}

// GetSessionByToken looks up a live session. Unknown and expired tokens both
// come back as apperror.ErrNotFound; expired rows are deleted lazily on
// the way out (no background reaper).
func (db *DB) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session

	err := db.conn.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at
		 FROM sessions WHERE token = ?`,
		token,
	).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", token)
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	if s.Expired(time.Now()) {
		if err := db.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound("session", token)
	}

	return &s, nil
}

// DeleteSession removes a session row. Deleting an already-absent token is not
// an error — logout must be idempotent.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = ?`, token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}
