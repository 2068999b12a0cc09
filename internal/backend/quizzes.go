package backend

import (
	"context"
	"net/http"
	"strings"

	"quiz-client/internal/apperr"
	"quiz-client/internal/quiz"
)

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

func (c *Client) ListClasses(ctx context.Context) ([]string, error) {
	var payload classesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/classes", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Classes, nil
}

func (c *Client) ListSubjects(ctx context.Context, class string) ([]string, error) {
	if err := requireFields(map[string]string{"class": class}); err != nil {
		return nil, err
	}

	var payload subjectsResponse
	path := joinPath("classes", class, "subjects")
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Subjects, nil
}

func (c *Client) ListTopics(ctx context.Context, class, subject string) ([]string, error) {
	if err := requireFields(map[string]string{"class": class, "subject": subject}); err != nil {
		return nil, err
	}

	var payload topicsResponse
	path := joinPath("classes", class, "subjects", subject, "topics")
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Topics, nil
}

func (c *Client) ListQuizzes(ctx context.Context, class, subject, topic string) ([]quiz.Summary, error) {
	if err := requireFields(map[string]string{"class": class, "subject": subject, "topic": topic}); err != nil {
		return nil, err
	}

	var payload quizzesResponse
	path := joinPath("classes", class, "subjects", subject, "topics", topic, "quizzes")
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Quizzes, nil
}

func (c *Client) FetchQuiz(ctx context.Context, key quiz.Key) (quiz.Quiz, error) {
	if err := key.Validate(); err != nil {
		return quiz.Quiz{}, err
	}

	var payload quiz.Quiz
	if err := c.doJSON(ctx, http.MethodGet, quizPath(key), nil, &payload); err != nil {
		return quiz.Quiz{}, err
	}
	return payload, nil
}

// SubmitAttempt encodes slots against q's shuffled option order, so q must be
// the same value the attempt was taken on.
func (c *Client) SubmitAttempt(ctx context.Context, key quiz.Key, q quiz.Quiz, slots []quiz.Slot) (quiz.Result, error) {
	if err := key.Validate(); err != nil {
		return quiz.Result{}, err
	}

	request := submissionRequest{Answers: quiz.EncodeAnswers(q, slots)}
	var result quiz.Result
	if err := c.doJSON(ctx, http.MethodPost, quizPath(key)+"/submissions", request, &result); err != nil {
		return quiz.Result{}, err
	}
	return result, nil
}

func quizPath(key quiz.Key) string {
	return joinPath("classes", key.Class, "subjects", key.Subject, "topics", key.Topic, "quizzes", key.Name)
}

func requireFields(fields map[string]string) error {
	problems := &apperr.ValidationError{}
	for _, name := range []string{"class", "subject", "topic"} {
		value, ok := fields[name]
		if ok && strings.TrimSpace(value) == "" {
			problems.Add(name, "is required")
		}
	}
	return problems.Err()
}
