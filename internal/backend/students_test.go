package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/apperr"
	"quiz-client/internal/quiz"
)

func TestGetProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/students/me", r.URL.Path)
		_ = json.NewEncoder(w).Encode(quiz.Student{ID: "s-1", Name: "Asha", Email: "asha@example.com", Class: "8"})
	}))
	defer server.Close()

	student, err := NewClient(server.URL, server.Client(), staticToken("tok")).GetProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Asha", student.Name)
}

func TestUpdateStudentValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), staticToken("tok"))
	_, err := client.UpdateStudent(context.Background(), quiz.Student{Name: "Asha"})
	require.True(t, apperr.IsValidation(err))
	require.Zero(t, calls.Load())
}

func TestUpdateStudent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/admin/students/s-1", r.URL.Path)
		var student quiz.Student
		require.NoError(t, json.NewDecoder(r.Body).Decode(&student))
		_ = json.NewEncoder(w).Encode(student)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), staticToken("tok"))
	updated, err := client.UpdateStudent(context.Background(), quiz.Student{ID: "s-1", Name: "Asha K", Email: "asha@example.com", Class: "9"})
	require.NoError(t, err)
	require.Equal(t, "9", updated.Class)
}

func TestUploadQuizSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/quizzes", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "8", r.FormValue("class"))
		require.Equal(t, "Science", r.FormValue("subject"))
		require.Equal(t, "Optics", r.FormValue("topic"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "optics.yaml", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Contains(t, string(data), "duration: 5")

		_ = json.NewEncoder(w).Encode(quiz.Summary{Name: "optics", DurationMinutes: 5, QuestionCount: 1})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), staticToken("tok"))
	summary, err := client.UploadQuiz(context.Background(), UploadTarget{Class: "8", Subject: "Science", Topic: "Optics"},
		"/tmp/optics.yaml", strings.NewReader("duration: 5\n"))
	require.NoError(t, err)
	require.Equal(t, 1, summary.QuestionCount)
}

func TestUploadQuizValidatesForm(t *testing.T) {
	client := NewClient("http://example.test", nil, staticToken("tok"))
	_, err := client.UploadQuiz(context.Background(), UploadTarget{Class: "8"}, "quiz.txt", strings.NewReader(""))

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields(), 3)
}
