package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/nisshi-dev/nisshi-dev-survey-api/app"
	"github.com/nisshi-dev/nisshi-dev-survey-api/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)
	root.Use(middlewares.CORS(app.AllowedOrigins))

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"status": "ok"})
	})

	// respondent-facing API, no auth
	root.Route("/survey", func(r chi.Router) {
		r.Get("/{id}", PublicGetSurvey(app))
		r.Post("/{id}/submit", PublicSubmitSurvey(app))
	})

	// admin API, session auth
	root.Route("/admin", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", Login(app))
			r.Post("/logout", Logout(app))
			r.Get("/session", GetSession(app))
		})

		r.Route("/surveys", func(r chi.Router) {
			r.Use(middlewares.AdminSession(app.Sessions))
			surveyRoutes(r, app)
		})
	})

	// data ingestion API, key auth
	root.Route("/data", func(r chi.Router) {
		r.Use(middlewares.APIKey(app.DataAPIKey))
		r.Route("/surveys", func(r chi.Router) {
			r.Get("/", ListSurveys(app))
			r.Post("/", DataCreateSurvey(app))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", GetSurvey(app))
				r.Put("/", UpdateSurvey(app))
				r.Post("/responses", DataSubmitResponses(app))
				dataEntryRoutes(r, app)
			})
		})
	})

	return root
}

func surveyRoutes(r chi.Router, app app.App) {
	r.Get("/", ListSurveys(app))
	r.Post("/", CreateSurvey(app))
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", GetSurvey(app))
		r.Put("/", UpdateSurvey(app))
		r.Patch("/", UpdateSurveyStatus(app))
		r.Delete("/", DeleteSurvey(app))
		r.Get("/responses", GetSurveyResponses(app))
		dataEntryRoutes(r, app)
	})
}

func dataEntryRoutes(r chi.Router, app app.App) {
	r.Get("/data-entries", ListDataEntries(app))
	r.Post("/data-entries", CreateDataEntry(app))
	r.Put("/data-entries/{entryId}", UpdateDataEntry(app))
	r.Delete("/data-entries/{entryId}", DeleteDataEntry(app))
}
