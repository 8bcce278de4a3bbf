package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
)

func TestDataAPIKeyGate(t *testing.T) {
	ta := newTestApp(t)

	t.Run("missing key", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/data/surveys", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "Unauthorized" {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/data/surveys", nil)
		req.Header.Set("X-API-Key", "wrong-key")
		rec := httptest.NewRecorder()
		ta.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid key", func(t *testing.T) {
		rec := ta.doData(t, http.MethodGet, "/data/surveys", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
	})
}

func TestDataCreateSurvey(t *testing.T) {
	ta := newTestApp(t)

	t.Run("status at creation", func(t *testing.T) {
		req := draftSurveyRequest()
		req.Status = model.StatusActive
		rec := ta.doData(t, http.MethodPost, "/data/surveys", req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var survey model.Survey
		decodeBody(t, rec, &survey)
		if survey.Status != model.StatusActive {
			t.Errorf("survey status = %q, want active", survey.Status)
		}

		// and it is immediately visible to respondents
		pub := ta.do(t, http.MethodGet, "/survey/"+survey.ID, nil)
		if pub.Code != http.StatusOK {
			t.Errorf("public get status = %d, want 200", pub.Code)
		}
	})

	t.Run("completed is not a valid initial status", func(t *testing.T) {
		req := draftSurveyRequest()
		req.Status = model.StatusCompleted
		rec := ta.doData(t, http.MethodPost, "/data/surveys", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("no status defaults to draft", func(t *testing.T) {
		rec := ta.doData(t, http.MethodPost, "/data/surveys", draftSurveyRequest())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var survey model.Survey
		decodeBody(t, rec, &survey)
		if survey.Status != model.StatusDraft {
			t.Errorf("survey status = %q, want draft", survey.Status)
		}
	})
}

func TestDataUpdateSurveyFreezesQuestions(t *testing.T) {
	ta := newTestApp(t)

	req := draftSurveyRequest()
	req.Status = model.StatusActive
	rec := ta.doData(t, http.MethodPost, "/data/surveys", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var survey model.Survey
	decodeBody(t, rec, &survey)

	update := model.UpdateSurveyRequest{
		Title: survey.Title,
		Questions: []model.Question{
			{Type: model.QuestionText, ID: "other", Label: "Other"},
		},
	}
	rec = ta.doData(t, http.MethodPut, "/data/surveys/"+survey.ID, update)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Cannot modify questions for active or completed survey" {
		t.Errorf("error = %q", msg)
	}
}

func TestDataSubmitResponses(t *testing.T) {
	ta := newTestApp(t)

	req := draftSurveyRequest()
	req.Status = model.StatusActive
	rec := ta.doData(t, http.MethodPost, "/data/surveys", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var survey model.Survey
	decodeBody(t, rec, &survey)
	path := "/data/surveys/" + survey.ID + "/responses"

	t.Run("empty batch is refused", func(t *testing.T) {
		rec := ta.doData(t, http.MethodPost, path, model.BulkResponsesRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("batch is ingested", func(t *testing.T) {
		rec := ta.doData(t, http.MethodPost, path, model.BulkResponsesRequest{
			Responses: []model.BulkResponse{
				{Answers: map[string]model.Answer{"name": model.StringAnswer("alice")}},
				{Answers: map[string]model.Answer{"name": model.StringAnswer("bob")},
					Params: map[string]string{"event": "summer"}},
			},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Count int `json:"count"`
		}
		decodeBody(t, rec, &body)
		if body.Count != 2 {
			t.Errorf("count = %d, want 2", body.Count)
		}

		cookie := ta.loginAdmin(t)
		rec = ta.do(t, http.MethodGet, "/admin/surveys/"+survey.ID+"/responses", nil, cookie)
		var list struct {
			Responses []model.Response `json:"responses"`
		}
		decodeBody(t, rec, &list)
		if len(list.Responses) != 2 {
			t.Errorf("stored %d responses, want 2", len(list.Responses))
		}
	})

	t.Run("inactive survey is reported as such", func(t *testing.T) {
		cookie := ta.loginAdmin(t)
		ta.setStatus(t, cookie, survey.ID, model.StatusCompleted)

		rec := ta.doData(t, http.MethodPost, path, model.BulkResponsesRequest{
			Responses: []model.BulkResponse{
				{Answers: map[string]model.Answer{"name": model.StringAnswer("carol")}},
			},
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "Survey is not active" {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("unknown survey", func(t *testing.T) {
		rec := ta.doData(t, http.MethodPost, "/data/surveys/no-such/responses", model.BulkResponsesRequest{
			Responses: []model.BulkResponse{
				{Answers: map[string]model.Answer{"name": model.StringAnswer("dave")}},
			},
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
