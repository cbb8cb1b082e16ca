// internal/data/sessions.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionStore persists scs sessions in the sessions table. It satisfies
// scs.Store.
type SessionStore struct {
	DB *sql.DB
}

// NewSessionStore returns a store backed by db.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{DB: db}
}

// Find returns the data for an unexpired session token.
func (s *SessionStore) Find(token string) ([]byte, bool, error) {
	var b []byte
	err := s.DB.QueryRow(`SELECT data FROM sessions WHERE token = $1 AND expiry > now()`, token).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Commit adds or replaces a session token.
func (s *SessionStore) Commit(token string, b []byte, expiry time.Time) error {
	_, err := s.DB.Exec(`
		INSERT INTO sessions (token, data, expiry) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expiry = EXCLUDED.expiry`,
		token, b, expiry)
	return err
}

// Delete removes a session token.
func (s *SessionStore) Delete(token string) error {
	_, err := s.DB.Exec(`DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteExpired removes every expired session and returns how many were removed.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expiry < now()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
