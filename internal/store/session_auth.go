package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// Review sessions expire after 12 hours; a marking shift never runs longer.
const sessionLifetime = 12 * time.Hour

// CreateAuthSession issues a fresh session token for the user.
func (s *Store) CreateAuthSession(userID int64) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, now, now.Add(sessionLifetime),
	); err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthSession resolves a token. Unknown and expired tokens both come back
// as a nil session; an expired row is dropped on the way out.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	}
	if !sess.ExpiresAt.After(time.Now()) {
		return nil, s.DeleteAuthSession(token)
	}
	return &sess, nil
}

// DeleteAuthSession signs the token out.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// PurgeExpiredSessions clears out every session past its expiry. Run at
// startup so tokens from old shifts do not pile up.
func (s *Store) PurgeExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	return err
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
