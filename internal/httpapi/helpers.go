package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"quiz-client/internal/apperr"
	"quiz-client/internal/bank"
	"quiz-client/internal/quiz"
)

const maxBodyBytes = 1 << 20

func (a *API) writeError(w http.ResponseWriter, err error) {
	var validation *apperr.ValidationError
	switch {
	case errors.As(err, &validation):
		response := errorResponse{Error: "invalid input"}
		for _, field := range validation.Fields() {
			response.Fields = append(response.Fields, fieldError{Field: field.Field, Message: field.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, response)
	case errors.Is(err, bank.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found"})
	case errors.Is(err, bank.ErrStudentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "student not found"})
	case errors.Is(err, bank.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, bank.ErrEmailTaken):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "invalid input",
			Fields: []fieldError{{Field: "email", Message: "is already registered"}},
		})
	case errors.Is(err, bank.ErrLastAdmin):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "invalid input",
			Fields: []fieldError{{Field: "role", Message: bank.ErrLastAdmin.Error()}},
		})
	case errors.Is(err, quiz.ErrInvalidKey),
		errors.Is(err, quiz.ErrEmptyQuiz),
		errors.Is(err, quiz.ErrInvalidDuration),
		errors.Is(err, quiz.ErrUnsupportedDocument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		a.logger.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// pathParam returns a decoded URL segment. chi routes on RawPath when the
// request carried one, and only then are the params still escaped.
func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
	}
	return strings.TrimSpace(value)
}

func quizKey(r *http.Request) quiz.Key {
	return quiz.Key{
		Class:   pathParam(r, "class"),
		Subject: pathParam(r, "subject"),
		Topic:   pathParam(r, "topic"),
		Name:    pathParam(r, "name"),
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
