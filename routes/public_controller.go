package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/nisshi-dev/nisshi-dev-survey-api/app"
	"github.com/nisshi-dev/nisshi-dev-survey-api/httpx"
	"github.com/nisshi-dev/nisshi-dev-survey-api/log"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/nisshi-dev/nisshi-dev-survey-api/storage"
	"github.com/pkg/errors"
)

// publicDataEntry is the respondent-facing projection of a data entry.
type publicDataEntry struct {
	ID     string            `json:"id"`
	Values map[string]string `json:"values"`
	Label  *string           `json:"label"`
}

// PublicGetSurvey serves a survey to respondents. Anything not active is a
// 404, indistinguishable from a survey that does not exist.
func PublicGetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && survey.Status != model.StatusActive) {
			httpx.LogNotFound(w, r, "public.get_survey", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		entries, err := app.Store.DataEntriesBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey.entries", err)
			return
		}
		publicEntries := make([]publicDataEntry, len(entries))
		for i, e := range entries {
			publicEntries[i] = publicDataEntry{e.ID, e.Values, e.Label}
		}

		render.JSON(w, r, map[string]any{
			"id":          survey.ID,
			"title":       survey.Title,
			"description": survey.Description,
			"questions":   survey.Questions,
			"params":      survey.Params,
			"dataEntries": publicEntries,
		})
	}
}

// PublicSubmitSurvey validates and persists one respondent submission, then
// optionally mails the respondent a copy of their answers.
func PublicSubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		req := model.SubmitRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "submit.validate", err.Error())
			return
		}
		if req.SendCopy && req.RespondentEmail == "" {
			httpx.LogBadRequest(w, r, "submit.send_copy",
				"respondentEmail is required when sendCopy is true")
			return
		}

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && survey.Status != model.StatusActive) {
			httpx.LogNotFound(w, r, "submit.get_survey", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		missing := model.MissingRequiredAnswers(survey.Questions, req.Answers)
		if len(missing) > 0 {
			httpx.LogBadRequest(w, r, "submit.required",
				"Required questions must be answered: "+strings.Join(missing, ", "))
			return
		}

		response := model.Response{
			SurveyID: surveyId,
			Answers:  req.Answers,
			Params:   req.Params,
		}
		if req.DataEntryID != "" {
			entry, err := app.Store.DataEntryByID(r.Context(), req.DataEntryID)
			if errors.Is(err, storage.ErrNotFound) || (err == nil && entry.SurveyID != surveyId) {
				httpx.LogNotFound(w, r, "submit.get_entry", msgDataEntryNotFound)
				return
			}
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_entry", err)
				return
			}

			// entry values first, caller params win on collision
			merged := make(map[string]string, len(entry.Values)+len(req.Params))
			for k, v := range entry.Values {
				merged[k] = v
			}
			for k, v := range req.Params {
				merged[k] = v
			}
			response.Params = merged
			entryId := req.DataEntryID
			response.DataEntryID = &entryId
		}

		err = app.Store.CreateResponse(r.Context(), &response)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_response", err)
			return
		}

		if req.SendCopy {
			// fire and forget: the submission already succeeded
			go func(to string, title string, questions []model.Question, answers map[string]model.Answer) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := app.Mailer.SendResponseCopy(ctx, to, title, questions, answers); err != nil {
					log.Errorf("mail.send_copy: %s", err)
				}
			}(req.RespondentEmail, survey.Title, survey.Questions, req.Answers)
		}

		render.JSON(w, r, map[string]any{
			"success":  true,
			"surveyId": surveyId,
		})
	}
}
