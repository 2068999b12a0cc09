package quiz

import (
	"math"
	"strings"
)

const (
	StatusCorrect = "correct"
	StatusWrong   = "wrong"
	StatusSkipped = "skipped"
)

type QuestionResult struct {
	QNo           int    `json:"qno"`
	Prompt        string `json:"question"`
	Chosen        string `json:"chosen,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	Status        string `json:"status"`
	Explanation   string `json:"explanation,omitempty"`
}

type Result struct {
	Correct    int              `json:"correct"`
	Wrong      int              `json:"wrong"`
	Skipped    int              `json:"skipped"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Details    []QuestionResult `json:"details"`
	// Synthetic is set on the locally built fallback used when scoring failed.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Grade scores submitted letters against the stored option order.
func Grade(q Quiz, answers []SubmittedAnswer) Result {
	byQNo := make(map[int]SubmittedAnswer, len(answers))
	for _, answer := range answers {
		byQNo[answer.QNo] = answer
	}

	result := Result{
		Total:   len(q.Questions),
		Details: make([]QuestionResult, 0, len(q.Questions)),
	}
	for idx, question := range q.Questions {
		detail := QuestionResult{
			QNo:           idx + 1,
			Prompt:        question.Prompt,
			CorrectAnswer: question.Correct,
			Explanation:   question.Explanation,
			Status:        StatusSkipped,
		}

		submitted, ok := byQNo[idx+1]
		if ok && len(submitted.Options) > 0 {
			options := question.Options()
			optionIdx := LetterIndex(submitted.Options[0])
			if optionIdx >= 0 && optionIdx < len(options) {
				detail.Chosen = options[optionIdx]
				if detail.Chosen == strings.TrimSpace(question.Correct) {
					detail.Status = StatusCorrect
				} else {
					detail.Status = StatusWrong
				}
			} else {
				detail.Status = StatusWrong
			}
		}

		switch detail.Status {
		case StatusCorrect:
			result.Correct++
		case StatusWrong:
			result.Wrong++
		default:
			result.Skipped++
		}
		result.Details = append(result.Details, detail)
	}

	result.Percentage = percentage(result.Correct, result.Total)
	return result
}

// AllSkipped builds the result shown when the backend could not score the
// attempt, so the user always reaches a results view.
func AllSkipped(q Quiz) Result {
	result := Grade(q, nil)
	result.Synthetic = true
	return result
}

func percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)*10000/float64(total)) / 100
}
