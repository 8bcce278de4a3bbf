package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/nisshi-dev/nisshi-dev-survey-api/app"
	"github.com/nisshi-dev/nisshi-dev-survey-api/httpx"
	"github.com/nisshi-dev/nisshi-dev-survey-api/log"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/nisshi-dev/nisshi-dev-survey-api/storage"
	"github.com/pkg/errors"
)

// DataCreateSurvey creates a survey through the machine API. Unlike the
// admin create, the initial status may be set to draft or active.
func DataCreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateSurveyRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "data.create_survey.validate", err.Error())
			return
		}
		if err = req.ValidateStatus(); err != nil {
			httpx.LogBadRequest(w, r, "data.create_survey.status", err.Error())
			return
		}

		survey := model.Survey{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			Questions:   req.Questions,
			Params:      req.Params,
		}
		err = app.Store.CreateSurvey(r.Context(), &survey)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

// DataSubmitResponses ingests a batch of responses for an active survey.
// The caller is an authenticated machine, so an inactive survey is reported
// as such instead of hiding behind a 404.
func DataSubmitResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		req := model.BulkResponsesRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "data.submit.validate", err.Error())
			return
		}

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "data.submit", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}
		if survey.Status != model.StatusActive {
			httpx.LogBadRequest(w, r, "data.submit.inactive", "Survey is not active")
			return
		}

		responses := make([]*model.Response, len(req.Responses))
		for i, item := range req.Responses {
			response := &model.Response{
				SurveyID: surveyId,
				Answers:  item.Answers,
				Params:   item.Params,
			}
			if item.DataEntryID != "" {
				entryId := item.DataEntryID
				response.DataEntryID = &entryId
			}
			responses[i] = response
		}

		count, err := app.Store.CreateResponses(r.Context(), responses)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_responses", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{"count": count})
	}
}
