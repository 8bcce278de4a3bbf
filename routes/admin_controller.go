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

const (
	msgSurveyNotFound    = "Survey not found"
	msgDataEntryNotFound = "Data entry not found"
	msgInvalidBody       = "Invalid request body"
)

// surveyDetail is a survey plus its data entries, the admin detail shape.
type surveyDetail struct {
	model.Survey
	DataEntries []model.DataEntry `json:"dataEntries"`
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Store.ListSurveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateSurveyRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "create_survey.validate", err.Error())
			return
		}

		survey := model.Survey{
			Title:       req.Title,
			Description: req.Description,
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

func GetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "get_survey", msgSurveyNotFound)
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

		render.JSON(w, r, surveyDetail{survey, entries})
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		req := model.UpdateSurveyRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "update_survey.validate", err.Error())
			return
		}

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "update_survey", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		// questions are frozen once the survey leaves draft; params stay
		// mutable in every status
		if survey.Status != model.StatusDraft && !model.QuestionsEqual(survey.Questions, req.Questions) {
			httpx.LogBadRequest(w, r, "update_survey.questions_frozen",
				"Cannot modify questions for active or completed survey")
			return
		}

		survey.Title = req.Title
		if req.Description != nil {
			survey.Description = req.Description
		}
		survey.Questions = req.Questions
		if req.Params != nil {
			survey.Params = req.Params
		}

		err = app.Store.UpdateSurvey(r.Context(), &survey)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurveyStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		req := model.UpdateStatusRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "update_status.validate", err.Error())
			return
		}

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "update_status", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		// no transition graph: any status may overwrite any other
		err = app.Store.UpdateSurveyStatus(r.Context(), surveyId, req.Status)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_status", err)
			return
		}
		survey.Status = req.Status

		render.JSON(w, r, survey)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "delete_survey", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}
		if survey.Status == model.StatusCompleted {
			httpx.LogBadRequest(w, r, "delete_survey.completed",
				"Completed survey cannot be deleted")
			return
		}

		err = app.Store.DeleteSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_survey", err)
			return
		}

		render.JSON(w, r, map[string]any{"success": true})
	}
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		_, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "get_responses", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		responses, err := app.Store.ResponsesBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveyId":  surveyId,
			"responses": responses,
		})
	}
}

func ListDataEntries(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		_, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "list_entries", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		entries, err := app.Store.DataEntriesBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_entries", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"dataEntries": entries,
		})
	}
}

func CreateDataEntry(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		req := model.DataEntryRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "create_entry.validate", err.Error())
			return
		}

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, r, "create_entry", msgSurveyNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		if err = model.ValidateDataEntryKeys(req.Values, survey.Params); err != nil {
			httpx.LogBadRequest(w, r, "create_entry.keys", err.Error())
			return
		}

		entry := model.DataEntry{
			SurveyID: surveyId,
			Values:   req.Values,
			Label:    req.Label,
		}
		err = app.Store.CreateDataEntry(r.Context(), &entry)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_entry", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, entry)
	}
}

func UpdateDataEntry(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		entryId := chi.URLParam(r, "entryId")

		req := model.DataEntryRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "update_entry.validate", err.Error())
			return
		}

		entry, err := app.Store.DataEntryByID(r.Context(), entryId)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && entry.SurveyID != surveyId) {
			httpx.LogNotFound(w, r, "update_entry", msgDataEntryNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_entry", err)
			return
		}

		survey, err := app.Store.SurveyByID(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}
		if err = model.ValidateDataEntryKeys(req.Values, survey.Params); err != nil {
			httpx.LogBadRequest(w, r, "update_entry.keys", err.Error())
			return
		}

		entry.Values = req.Values
		entry.Label = req.Label
		err = app.Store.UpdateDataEntry(r.Context(), &entry)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_entry", err)
			return
		}

		render.JSON(w, r, entry)
	}
}

func DeleteDataEntry(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		entryId := chi.URLParam(r, "entryId")

		entry, err := app.Store.DataEntryByID(r.Context(), entryId)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && entry.SurveyID != surveyId) {
			httpx.LogNotFound(w, r, "delete_entry", msgDataEntryNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_entry", err)
			return
		}

		if entry.ResponseCount > 0 {
			httpx.LogBadRequest(w, r, "delete_entry.referenced",
				"Data entry has responses and cannot be deleted")
			return
		}

		err = app.Store.DeleteDataEntry(r.Context(), entryId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_entry", err)
			return
		}

		render.JSON(w, r, map[string]any{"success": true})
	}
}
