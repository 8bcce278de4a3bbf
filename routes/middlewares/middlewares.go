package middlewares

import (
	"context"
	"crypto/subtle"
	"net/http"
	"regexp"
	"strings"

	"github.com/nisshi-dev/nisshi-dev-survey-api/auth"
	"github.com/nisshi-dev/nisshi-dev-survey-api/httpx"
)

type ctxKey int

const userKey ctxKey = iota

// User is the authenticated admin attached to the request context.
type User struct {
	ID    string
	Email string
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}

// AdminSession rejects requests without a live admin session with a uniform
// 401, regardless of whether the token is missing, unknown or expired.
func AdminSession(sessions auth.SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessions.SessionFromRequest(r)
			if !ok {
				httpx.LogUnauthorized(w, r, "auth.session")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, User{
				ID:    session.UserID,
				Email: session.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyHeader carries the machine client credential.
const APIKeyHeader = "X-API-Key"

// APIKey authenticates machine clients against the configured key. The
// comparison is constant-time; an unconfigured key is a deployment error.
func APIKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				httpx.Error(w, r, http.StatusInternalServerError, "API key not configured")
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				httpx.LogUnauthorized(w, r, "auth.api_key.missing")
				return
			}
			if len(provided) != len(expected) ||
				subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				httpx.LogUnauthorized(w, r, "auth.api_key.mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS reflects allowed origins and answers preflight requests. The
// allowlist format is described on IsAllowedOrigin.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && IsAllowedOrigin(origin, allowedOrigins) {
				header := w.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				header := w.Header()
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Content-Type, "+APIKeyHeader)
				header.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsAllowedOrigin reports whether origin matches the comma-separated
// allowlist. Entries are literal origins or patterns where * matches any run
// of characters within a single dot-delimited label, e.g.
// "https://survey.example.com,https://survey-*.example.app".
// An empty allowlist rejects every origin.
func IsAllowedOrigin(origin, allowedOrigins string) bool {
	if allowedOrigins == "" {
		return false
	}

	for _, pattern := range strings.Split(allowedOrigins, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if !strings.Contains(pattern, "*") {
			if origin == pattern {
				return true
			}
			continue
		}

		escaped := regexp.QuoteMeta(pattern)
		re, err := regexp.Compile("^" + strings.ReplaceAll(escaped, `\*`, `[^.]*`) + "$")
		if err != nil {
			continue
		}
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}
