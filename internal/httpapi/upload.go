package httpapi

import (
	"io"
	"net/http"
	"strings"

	"quiz-client/internal/quiz"
)

const maxUploadBytes = 4 << 20

// HandleUploadQuiz accepts a multipart form with class, subject, topic and a
// JSON or YAML quiz document in "file". The document's name names the quiz.
func (a *API) HandleUploadQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	var missing []string
	values := make(map[string]string, 3)
	for _, name := range []string{"class", "subject", "topic"} {
		values[name] = strings.TrimSpace(r.FormValue(name))
		if values[name] == "" {
			missing = append(missing, name)
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		missing = append(missing, "file")
	} else {
		defer file.Close()
	}
	if len(missing) > 0 {
		a.writeError(w, fieldRequired(missing...))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}
	q, err := quiz.ParseDocument(header.Filename, data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := quiz.Key{Class: values["class"], Subject: values["subject"], Topic: values["topic"], Name: q.Name}
	summary, err := a.bank.SaveQuiz(r.Context(), key, q)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.logger.Printf("quiz %s uploaded by %s", key, claimsFrom(r.Context()).Email)
	writeJSON(w, http.StatusCreated, summary)
}
