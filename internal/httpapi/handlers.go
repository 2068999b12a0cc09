package httpapi

import (
	"net/http"
	"strings"

	"quiz-client/internal/apperr"
	"quiz-client/internal/auth"
	"quiz-client/internal/quiz"
)

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if err := auth.ValidateCredentials(request.Email, request.Password); err != nil {
		a.writeError(w, err)
		return
	}

	student, err := a.bank.Authenticate(r.Context(), request.Email, request.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}

	token, err := a.signer.Issue(student.ID, student.Email, student.Role)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (a *API) HandleProfile(w http.ResponseWriter, r *http.Request) {
	student, err := a.bank.GetStudent(r.Context(), claimsFrom(r.Context()).Subject)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (a *API) HandleClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := a.bank.ListClasses(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classesResponse{Classes: classes})
}

func (a *API) HandleSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := a.bank.ListSubjects(r.Context(), pathParam(r, "class"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subjectsResponse{Subjects: subjects})
}

func (a *API) HandleTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := a.bank.ListTopics(r.Context(), pathParam(r, "class"), pathParam(r, "subject"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: topics})
}

func (a *API) HandleQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.bank.ListQuizzes(r.Context(), pathParam(r, "class"), pathParam(r, "subject"), pathParam(r, "topic"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzesResponse{Quizzes: quizzes})
}

// HandleQuiz serves a quiz for taking. Answers and explanations stay on the
// server until the attempt is submitted.
func (a *API) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := a.bank.GetQuiz(r.Context(), quizKey(r))
	if err != nil {
		a.writeError(w, err)
		return
	}

	for idx := range q.Questions {
		question := &q.Questions[idx]
		question.Correct = ""
		question.Alternatives = ""
		question.Explanation = ""
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var request submissionRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Answers == nil {
		a.writeError(w, fieldRequired("answers"))
		return
	}

	submission, err := a.bank.Submit(r.Context(), claimsFrom(r.Context()).Subject, quizKey(r), request.Answers)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{Result: submission.Result, SubmissionID: submission.ID})
}

func (a *API) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var student quiz.Student
	if !decodeJSON(w, r, &student) {
		return
	}
	student.ID = pathParam(r, "id")
	if student.Role == "" {
		student.Role = quiz.RoleStudent
	}

	updated, err := a.bank.UpdateStudent(r.Context(), student)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func fieldRequired(names ...string) error {
	problems := &apperr.ValidationError{}
	for _, name := range names {
		problems.Add(strings.TrimSpace(name), "is required")
	}
	return problems.Err()
}
