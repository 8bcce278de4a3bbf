package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed string
		want    bool
	}{
		{"empty allowlist rejects everything", "https://a.example.com", "", false},
		{"literal match", "https://a.example.com", "https://a.example.com", true},
		{"literal mismatch", "https://b.example.com", "https://a.example.com", false},
		{"second entry matches", "https://b.example.com", "https://a.example.com,https://b.example.com", true},
		{"whitespace around entries is trimmed", "https://b.example.com", " https://a.example.com , https://b.example.com ", true},
		{"blank entries are skipped", "https://a.example.com", ",,https://a.example.com", true},
		{"wildcard matches within a label", "https://a-x.b.com", "https://a-*.b.com", true},
		{"wildcard matches empty run", "https://a-.b.com", "https://a-*.b.com", true},
		{"wildcard does not match a prefixed host", "https://evil-a-x.b.com", "https://a-*.b.com", false},
		{"wildcard does not span labels", "https://a-x.y.b.com", "https://a-*.b.com", false},
		{"wildcard entry does not become a substring match", "https://a-x.b.com.evil.net", "https://a-*.b.com", false},
		{"preview deployments", "https://survey-pr-42.vercel.app", "https://survey.example.com,https://survey-*.vercel.app", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAllowedOrigin(tt.origin, tt.allowed)
			if got != tt.want {
				t.Errorf("IsAllowedOrigin(%q, %q) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS("https://app.example.com")(next)

	t.Run("allowed origin is reflected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/survey/1", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q", got)
		}
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/survey/1", nil)
		req.Header.Set("Origin", "https://evil.example.net")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight is answered without hitting the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/survey/1", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
			t.Errorf("Access-Control-Allow-Methods = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, APIKeyHeader) {
			t.Errorf("Access-Control-Allow-Headers = %q", got)
		}
	})
}

func TestAPIKey(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		expected string
		provided string
		noHeader bool
		want     int
	}{
		{"unconfigured key is a server error", "", "anything", false, http.StatusInternalServerError},
		{"missing header", "sekrit", "", true, http.StatusUnauthorized},
		{"wrong length", "sekrit", "sek", false, http.StatusUnauthorized},
		{"same length mismatch", "sekrit", "sekrat", false, http.StatusUnauthorized},
		{"exact match", "sekrit", "sekrit", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := APIKey(tt.expected)(next)
			req := httptest.NewRequest(http.MethodGet, "/data/surveys", nil)
			if !tt.noHeader {
				req.Header.Set(APIKeyHeader, tt.provided)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), "Unauthorized") {
				t.Errorf("401 body = %q, want uniform Unauthorized", rec.Body.String())
			}
			if tt.want == http.StatusInternalServerError && !strings.Contains(rec.Body.String(), "API key not configured") {
				t.Errorf("500 body = %q", rec.Body.String())
			}
		})
	}
}

// fakeSessions resolves a fixed token to a fixed session.
type fakeSessions struct {
	token   string
	session model.Session
}

func (f fakeSessions) SessionFromRequest(r *http.Request) (model.Session, bool) {
	cookie, err := r.Cookie("survey_session")
	if err != nil || cookie.Value != f.token {
		return model.Session{}, false
	}
	return f.session, true
}

func TestAdminSession(t *testing.T) {
	sessions := fakeSessions{
		token: "tok-1",
		session: model.Session{
			Token:     "tok-1",
			UserID:    "user-1",
			Email:     "admin@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}

	var seen User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AdminSession(sessions)(next)

	t.Run("no session is a uniform 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/surveys", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error":"Unauthorized"`) {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("valid session attaches the user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/surveys", nil)
		req.AddCookie(&http.Cookie{Name: "survey_session", Value: "tok-1"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if seen.ID != "user-1" || seen.Email != "admin@example.com" {
			t.Errorf("context user = %+v", seen)
		}
	})
}
