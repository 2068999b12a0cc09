package backend

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"quiz-client/internal/apperr"
	"quiz-client/internal/quiz"
)

// UploadTarget is where an uploaded quiz document lands in the catalog.
type UploadTarget struct {
	Class   string
	Subject string
	Topic   string
}

func (c *Client) GetProfile(ctx context.Context) (quiz.Student, error) {
	var student quiz.Student
	if err := c.doJSON(ctx, http.MethodGet, "/students/me", nil, &student); err != nil {
		return quiz.Student{}, err
	}
	return student, nil
}

func (c *Client) UpdateStudent(ctx context.Context, student quiz.Student) (quiz.Student, error) {
	problems := &apperr.ValidationError{}
	if strings.TrimSpace(student.ID) == "" {
		problems.Add("id", "is required")
	}
	if err := student.Validate(); err != nil {
		var fieldsErr *apperr.ValidationError
		if errors.As(err, &fieldsErr) {
			for _, field := range fieldsErr.Fields() {
				problems.Add(field.Field, field.Message)
			}
		}
	}
	if err := problems.Err(); err != nil {
		return quiz.Student{}, err
	}

	var updated quiz.Student
	if err := c.doJSON(ctx, http.MethodPut, joinPath("admin", "students", student.ID), student, &updated); err != nil {
		return quiz.Student{}, err
	}
	return updated, nil
}

// UploadQuiz sends a JSON or YAML quiz document as a multipart form.
func (c *Client) UploadQuiz(ctx context.Context, target UploadTarget, filename string, document io.Reader) (quiz.Summary, error) {
	fields := [][2]string{{"class", target.Class}, {"subject", target.Subject}, {"topic", target.Topic}}
	problems := &apperr.ValidationError{}
	for _, field := range fields {
		if strings.TrimSpace(field[1]) == "" {
			problems.Add(field[0], "is required")
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".yaml", ".yml":
	default:
		problems.Add("file", quiz.ErrUnsupportedDocument.Error())
	}
	if err := problems.Err(); err != nil {
		return quiz.Summary{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, field := range fields {
		if err := writer.WriteField(field[0], strings.TrimSpace(field[1])); err != nil {
			return quiz.Summary{}, errors.Wrap(err, "failed to write form field")
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return quiz.Summary{}, errors.Wrap(err, "failed to create form file")
	}
	if _, err := io.Copy(part, document); err != nil {
		return quiz.Summary{}, errors.Wrap(err, "failed to read quiz document")
	}
	if err := writer.Close(); err != nil {
		return quiz.Summary{}, errors.Wrap(err, "failed to finish form")
	}

	var summary quiz.Summary
	if err := c.do(ctx, http.MethodPost, "/admin/quizzes", &body, writer.FormDataContentType(), &summary); err != nil {
		return quiz.Summary{}, err
	}
	return summary, nil
}
