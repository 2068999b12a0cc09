package quiz

import (
	"errors"
	"math/rand"
	"strings"
)

var (
	ErrEmptyQuiz       = errors.New("quiz has no questions")
	ErrInvalidDuration = errors.New("quiz duration must be positive")
	ErrInvalidKey      = errors.New("class, subject, topic and quiz name are required")
)

// Key addresses a quiz in the backend catalog.
type Key struct {
	Class   string `json:"class"`
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
	Name    string `json:"name"`
}

func (k Key) Validate() error {
	if strings.TrimSpace(k.Class) == "" ||
		strings.TrimSpace(k.Subject) == "" ||
		strings.TrimSpace(k.Topic) == "" ||
		strings.TrimSpace(k.Name) == "" {
		return ErrInvalidKey
	}
	return nil
}

func (k Key) String() string {
	return k.Class + "/" + k.Subject + "/" + k.Topic + "/" + k.Name
}

type Question struct {
	Prompt  string `json:"question" yaml:"question"`
	Correct string `json:"correct_answer" yaml:"correct_answer"`
	// Alternatives holds the incorrect answers separated by '|' or '~'.
	Alternatives string   `json:"incorrect_answers" yaml:"incorrect_answers"`
	Explanation  string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Shuffled     []string `json:"shuffled_answers,omitempty" yaml:"shuffled_answers,omitempty"`
}

type Quiz struct {
	Name            string     `json:"name" yaml:"name"`
	Category        string     `json:"category" yaml:"category"`
	DurationMinutes int        `json:"duration" yaml:"duration"`
	Questions       []Question `json:"questions" yaml:"questions"`
}

type Summary struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration"`
	QuestionCount   int    `json:"question_count"`
}

func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrEmptyQuiz
	}
	if q.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

func (q Quiz) DurationSeconds() int {
	return q.DurationMinutes * 60
}

func (q Quiz) Summary() Summary {
	return Summary{
		Name:            q.Name,
		Category:        q.Category,
		DurationMinutes: q.DurationMinutes,
		QuestionCount:   len(q.Questions),
	}
}

// SplitAlternatives parses the delimited incorrect-answer string.
func SplitAlternatives(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == '~'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Options returns the answer list shown to the user. Once shuffled, the
// order is fixed; submissions are encoded against it.
func (q Question) Options() []string {
	if len(q.Shuffled) > 0 {
		return q.Shuffled
	}
	options := make([]string, 0, 4)
	options = append(options, strings.TrimSpace(q.Correct))
	return append(options, SplitAlternatives(q.Alternatives)...)
}

// OptionIndex locates answer text in the option list, or returns -1.
func (q Question) OptionIndex(answer string) int {
	for idx, option := range q.Options() {
		if option == answer {
			return idx
		}
	}
	return -1
}

type ShuffleFunc func(n int, swap func(i, j int))

// ShuffleOptions fills Shuffled for every question that does not carry a
// pre-shuffled list yet. Questions already shuffled keep their order.
func (q *Quiz) ShuffleOptions(shuffle ShuffleFunc) {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	for idx := range q.Questions {
		question := &q.Questions[idx]
		if len(question.Shuffled) > 0 {
			continue
		}
		options := question.Options()
		shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		question.Shuffled = options
	}
}

// Clone copies the quiz deeply enough that shuffling the copy leaves the
// original untouched.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for idx, question := range q.Questions {
		if question.Shuffled != nil {
			question.Shuffled = append([]string(nil), question.Shuffled...)
		}
		out.Questions[idx] = question
	}
	return out
}
