package httpapi

import (
	"context"
	"log"

	"quiz-client/internal/auth"
	"quiz-client/internal/bank"
	"quiz-client/internal/quiz"
)

// Bank is the storage the API serves from. *bank.Store satisfies it.
type Bank interface {
	ListClasses(ctx context.Context) ([]string, error)
	ListSubjects(ctx context.Context, class string) ([]string, error)
	ListTopics(ctx context.Context, class, subject string) ([]string, error)
	ListQuizzes(ctx context.Context, class, subject, topic string) ([]quiz.Summary, error)
	GetQuiz(ctx context.Context, key quiz.Key) (quiz.Quiz, error)
	SaveQuiz(ctx context.Context, key quiz.Key, q quiz.Quiz) (quiz.Summary, error)
	Submit(ctx context.Context, studentID string, key quiz.Key, answers []quiz.SubmittedAnswer) (bank.Submission, error)
	Authenticate(ctx context.Context, email, password string) (quiz.Student, error)
	GetStudent(ctx context.Context, id string) (quiz.Student, error)
	UpdateStudent(ctx context.Context, student quiz.Student) (quiz.Student, error)
}

type API struct {
	bank   Bank
	signer *auth.Signer
	logger *log.Logger
}

func NewAPI(store Bank, signer *auth.Signer, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{
		bank:   store,
		signer: signer,
		logger: logger,
	}
}
