package bank

import (
	"context"

	"github.com/pkg/errors"

	"quiz-client/internal/opentdb"
	"quiz-client/internal/quiz"
)

type TriviaSource interface {
	Fetch(ctx context.Context, query opentdb.Query) ([]opentdb.RawQuestion, error)
}

// SeedRequest imports a trivia batch as the quiz at Key.
type SeedRequest struct {
	Key             quiz.Key
	Query           opentdb.Query
	DurationMinutes int
}

func (s *Store) Seed(ctx context.Context, source TriviaSource, request SeedRequest) (quiz.Summary, error) {
	raw, err := source.Fetch(ctx, request.Query)
	if err != nil {
		return quiz.Summary{}, errors.Wrap(err, "failed to fetch trivia")
	}

	duration := request.DurationMinutes
	if duration <= 0 {
		duration = 10
	}
	q := quiz.FromTrivia(request.Key.Name, duration, raw)
	if len(q.Questions) == 0 {
		return quiz.Summary{}, errors.New("trivia source returned no usable questions")
	}
	return s.SaveQuiz(ctx, request.Key, q)
}
