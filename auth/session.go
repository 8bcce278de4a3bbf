package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/nisshi-dev/nisshi-dev-survey-api/storage"
	"github.com/pkg/errors"
)

// CookieName carries the admin session token.
const CookieName = "survey_session"

// SessionProvider resolves a request to an admin session, or reports that
// there is none. Missing, unknown and expired tokens are indistinguishable
// to the caller.
type SessionProvider interface {
	SessionFromRequest(r *http.Request) (model.Session, bool)
}

// Provider is the storage-backed SessionProvider.
type Provider struct {
	store *storage.Store
	ttl   time.Duration
}

func NewProvider(store *storage.Store, ttl time.Duration) *Provider {
	return &Provider{store: store, ttl: ttl}
}

func (p *Provider) TTL() time.Duration {
	return p.ttl
}

// Create opens a new session for the user.
func (p *Provider) Create(ctx context.Context, user model.AdminUser) (model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return model.Session{}, errors.Wrap(err, "generate session token")
	}

	session := model.Session{
		Token:     hex.EncodeToString(tokenBytes),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: time.Now().UTC().Add(p.ttl),
	}
	err := p.store.CreateSession(ctx, session.Token, session.UserID, session.ExpiresAt)
	if err != nil {
		return model.Session{}, err
	}
	return session, nil
}

func (p *Provider) SessionFromRequest(r *http.Request) (model.Session, bool) {
	token := TokenFromRequest(r)
	if token == "" {
		return model.Session{}, false
	}

	session, err := p.store.SessionByToken(r.Context(), token)
	if err != nil {
		return model.Session{}, false
	}
	if session.ExpiresAt.Before(time.Now()) {
		// best effort cleanup
		p.store.DeleteSession(r.Context(), token)
		return model.Session{}, false
	}
	return session, true
}

// Destroy invalidates the session token. Unknown tokens are not an error.
func (p *Provider) Destroy(ctx context.Context, token string) error {
	return p.store.DeleteSession(ctx, token)
}

// TokenFromRequest extracts the session token from the cookie, falling back
// to an Authorization bearer header for non-browser admin clients.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authz := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(authz, "Bearer "); found {
		return token
	}
	return ""
}
