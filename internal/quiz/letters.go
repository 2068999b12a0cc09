package quiz

import "strings"

func Letter(index int) string {
	if index < 0 || index >= 26 {
		return ""
	}
	return string(rune('A' + index))
}

func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 {
		return ""
	}
	if letter[0] < 'A' || letter[0] > 'Z' {
		return ""
	}
	return letter
}

// LetterIndex maps a letter back to its option index, or -1.
func LetterIndex(answer string) int {
	letter := NormalizeLetter(answer)
	if letter == "" {
		return -1
	}
	return int(letter[0] - 'A')
}

// SubmittedAnswer is one entry of the submission payload. An empty Options
// list means no option was selected.
type SubmittedAnswer struct {
	QNo     int      `json:"qno"`
	Options []string `json:"options"`
}

// EncodeAnswers translates slot text back to positional letters against each
// question's shuffled option list. Text that is not in the list (the order
// changed between load and submit) is sent as no selection.
func EncodeAnswers(q Quiz, slots []Slot) []SubmittedAnswer {
	answers := make([]SubmittedAnswer, 0, len(q.Questions))
	for idx, question := range q.Questions {
		answer := SubmittedAnswer{QNo: idx + 1, Options: []string{}}
		if idx < len(slots) && slots[idx].IsAnswered() {
			if optionIdx := question.OptionIndex(slots[idx].Value); optionIdx >= 0 {
				answer.Options = append(answer.Options, Letter(optionIdx))
			}
		}
		answers = append(answers, answer)
	}
	return answers
}
