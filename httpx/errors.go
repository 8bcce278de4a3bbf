package httpx

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/nisshi-dev/nisshi-dev-survey-api/log"
)

// Error sends a JSON error body with the given status.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": msg})
}

// Will log an error, and send a 500 response with a generic body
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	Error(w, r, http.StatusInternalServerError, "Internal server error")
}

// Will log a debug message, and send a 404 response with the given body
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, msg string) {
	log.Debugf("%s: not found", code)
	Error(w, r, http.StatusNotFound, msg)
}

// Will log a debug message, and send a 400 response with the given body
func LogBadRequest(w http.ResponseWriter, r *http.Request, code string, msg string) {
	log.Debugf("%s: %s", code, msg)
	Error(w, r, http.StatusBadRequest, msg)
}

// Will log a debug message, and send the uniform 401 body
func LogUnauthorized(w http.ResponseWriter, r *http.Request, code string) {
	log.Debug(code)
	Error(w, r, http.StatusUnauthorized, "Unauthorized")
}
