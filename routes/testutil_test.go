package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nisshi-dev/nisshi-dev-survey-api/app"
	"github.com/nisshi-dev/nisshi-dev-survey-api/auth"
	"github.com/nisshi-dev/nisshi-dev-survey-api/config"
	"github.com/nisshi-dev/nisshi-dev-survey-api/database"
	"github.com/nisshi-dev/nisshi-dev-survey-api/mailer"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/nisshi-dev/nisshi-dev-survey-api/storage"
)

const testAPIKey = "test-api-key"

// captureMailer records sends instead of dispatching them.
type captureMailer struct {
	sent chan capturedMail
}

type capturedMail struct {
	To        string
	Title     string
	Questions []model.Question
	Answers   map[string]model.Answer
}

func (m *captureMailer) SendResponseCopy(_ context.Context, to, title string, questions []model.Question, answers map[string]model.Answer) error {
	m.sent <- capturedMail{to, title, questions, answers}
	return nil
}

var _ mailer.Mailer = (*captureMailer)(nil)

type testApp struct {
	app.App
	handler http.Handler
	mails   *captureMailer
}

// newTestApp wires the full router against a fresh migrated database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Config{
		DBUrl:      filepath.Join(t.TempDir(), "test.sqlite"),
		DataAPIKey: testAPIKey,
		SessionTTL: time.Hour,
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.New(db)
	mails := &captureMailer{sent: make(chan capturedMail, 1)}
	a := app.App{
		Store:    store,
		Sessions: auth.NewProvider(store, cfg.SessionTTL),
		Mailer:   mails,
		Config:   cfg,
	}
	return &testApp{App: a, handler: Wire(a), mails: mails}
}

// loginAdmin seeds an admin user and opens a session, returning the cookie
// a browser would carry.
func (ta *testApp) loginAdmin(t *testing.T) *http.Cookie {
	t.Helper()

	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	ctx := context.Background()
	if err := ta.Store.UpsertAdminUser(ctx, "admin@example.com", hash); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	user, err := ta.Store.UserByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	session, err := ta.Sessions.Create(ctx, user)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: session.Token}
}

// newRequest builds a request without sending it. body may be nil, a raw
// JSON string, or any value to marshal.
func (ta *testApp) newRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, httptest.NewRecorder()
}

// do runs a request through the router.
func (ta *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, rec := ta.newRequest(t, method, path, body)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	ta.handler.ServeHTTP(rec, req)
	return rec
}

// doData runs a request with the data API key attached.
func (ta *testApp) doData(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req, rec := ta.newRequest(t, method, path, body)
	req.Header.Set("X-API-Key", testAPIKey)
	ta.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error
}

// createSurvey makes a survey through the admin API and returns it.
func (ta *testApp) createSurvey(t *testing.T, cookie *http.Cookie, req model.CreateSurveyRequest) model.Survey {
	t.Helper()

	rec := ta.do(t, http.MethodPost, "/admin/surveys", req, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create survey: status %d, body %s", rec.Code, rec.Body.String())
	}
	var survey model.Survey
	decodeBody(t, rec, &survey)
	return survey
}

// setStatus patches the survey status through the admin API.
func (ta *testApp) setStatus(t *testing.T, cookie *http.Cookie, surveyId string, status model.SurveyStatus) {
	t.Helper()

	rec := ta.do(t, http.MethodPatch, "/admin/surveys/"+surveyId, model.UpdateStatusRequest{Status: status}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("set status %s: status %d, body %s", status, rec.Code, rec.Body.String())
	}
}
