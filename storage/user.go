package storage

import (
	"context"
	"time"

	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/pkg/errors"
)

// UpsertAdminUser creates the admin user or rotates its password hash.
func (s *Store) UpsertAdminUser(ctx context.Context, email, passwordHash string) error {
	id, err := newID()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admin_user (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET password_hash = excluded.password_hash`,
		id,
		email,
		passwordHash,
		time.Now().UTC(),
	)
	return errors.Wrap(err, "upsert admin user")
}

func (s *Store) UserByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	user := model.AdminUser{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM admin_user
		WHERE email = ?`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return user, notFoundIfNoRows(err, "get user")
	}
	return user, nil
}

func (s *Store) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		token,
		userID,
		expiresAt,
		time.Now().UTC(),
	)
	return errors.Wrap(err, "insert session")
}

// SessionByToken resolves a session together with its user's email. Expiry is
// the caller's concern.
func (s *Store) SessionByToken(ctx context.Context, token string) (model.Session, error) {
	session := model.Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, u.email, s.expires_at
		FROM session s
		INNER JOIN admin_user u ON (u.id = s.user_id)
		WHERE s.token = ?`,
		token,
	).Scan(&session.Token, &session.UserID, &session.Email, &session.ExpiresAt)
	if err != nil {
		return session, notFoundIfNoRows(err, "get session")
	}
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE token = ?`, token)
	return errors.Wrap(err, "delete session")
}
