package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/nisshi-dev/nisshi-dev-survey-api/app"
	"github.com/nisshi-dev/nisshi-dev-survey-api/auth"
	"github.com/nisshi-dev/nisshi-dev-survey-api/httpx"
	"github.com/nisshi-dev/nisshi-dev-survey-api/log"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
)

func sessionUser(id, email string) map[string]any {
	return map[string]any{
		"user": map[string]string{
			"id":    id,
			"email": email,
		},
	}
}

// Login verifies email and password, opens a session and sets the cookie.
// All failure modes answer with the same 401.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.LoginRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Debug("request.parse_body:", err)
			httpx.Error(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if err = req.Validate(); err != nil {
			httpx.LogBadRequest(w, r, "login.validate", err.Error())
			return
		}

		user, err := app.Store.UserByEmail(r.Context(), req.Email)
		if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
			httpx.LogUnauthorized(w, r, "login.credentials")
			return
		}

		session, err := app.Sessions.Create(r.Context(), user)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_session", err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    session.Token,
			Path:     "/",
			MaxAge:   int(app.Sessions.TTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		render.JSON(w, r, sessionUser(user.ID, user.Email))
	}
}

// Logout destroys the session referenced by the request, if any, and clears
// the cookie either way.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := auth.TokenFromRequest(r); token != "" {
			if err := app.Sessions.Destroy(r.Context(), token); err != nil {
				httpx.LogInternalError(w, r, "db.delete_session", err)
				return
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		render.JSON(w, r, map[string]any{"success": true})
	}
}

// GetSession reports the authenticated admin, or the uniform 401.
func GetSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := app.Sessions.SessionFromRequest(r)
		if !ok {
			httpx.LogUnauthorized(w, r, "session.resolve")
			return
		}

		render.JSON(w, r, sessionUser(session.UserID, session.Email))
	}
}
