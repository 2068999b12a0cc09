package quiz

import (
	"html"
	"strings"

	"quiz-client/internal/opentdb"
)

// FromTrivia converts OpenTriviaDB questions into a quiz. Only multiple-choice
// and true/false items carry usable alternatives; anything else is dropped.
func FromTrivia(name string, durationMinutes int, raw []opentdb.RawQuestion) Quiz {
	q := Quiz{
		Name:            name,
		DurationMinutes: durationMinutes,
		Questions:       make([]Question, 0, len(raw)),
	}

	for _, item := range raw {
		if len(item.IncorrectAnswers) == 0 {
			continue
		}
		if q.Category == "" {
			q.Category = html.UnescapeString(item.Category)
		}
		q.Questions = append(q.Questions, buildQuestion(item))
	}

	return q
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	alternatives := make([]string, 0, len(raw.IncorrectAnswers))
	for _, incorrect := range raw.IncorrectAnswers {
		// The delimiters are reserved by the alternatives encoding.
		text := strings.NewReplacer("|", "/", "~", "-").Replace(html.UnescapeString(incorrect))
		alternatives = append(alternatives, strings.TrimSpace(text))
	}

	return Question{
		Prompt:       html.UnescapeString(raw.Question),
		Correct:      strings.TrimSpace(html.UnescapeString(raw.CorrectAnswer)),
		Alternatives: strings.Join(alternatives, "|"),
	}
}
