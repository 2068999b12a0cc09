package httpapi

import "quiz-client/internal/quiz"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type classesResponse struct {
	Classes []string `json:"classes"`
}

type subjectsResponse struct {
	Subjects []string `json:"subjects"`
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

type quizzesResponse struct {
	Quizzes []quiz.Summary `json:"quizzes"`
}

type submissionRequest struct {
	Answers []quiz.SubmittedAnswer `json:"answers"`
}

type submissionResponse struct {
	quiz.Result
	SubmissionID string `json:"submission_id"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}
