package quiz

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedDocument = errors.New("quiz document must be .json, .yaml or .yml")

// ParseDocument decodes an uploaded quiz file, picking the codec from the
// file extension.
func ParseDocument(filename string, data []byte) (Quiz, error) {
	var q Quiz

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&q); err != nil {
			return Quiz{}, errors.Wrapf(err, "failed to decode json quiz %q", filename)
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&q); err != nil {
			return Quiz{}, errors.Wrapf(err, "failed to decode yaml quiz %q", filename)
		}
	default:
		return Quiz{}, ErrUnsupportedDocument
	}

	q.Name = strings.TrimSpace(q.Name)
	if q.Name == "" {
		q.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	for idx := range q.Questions {
		question := &q.Questions[idx]
		question.Prompt = strings.TrimSpace(question.Prompt)
		question.Correct = strings.TrimSpace(question.Correct)
		if question.Prompt == "" || question.Correct == "" {
			return Quiz{}, errors.Errorf("question %d needs a prompt and a correct answer", idx+1)
		}
		question.Shuffled = trimOptions(question.Shuffled)
		if err := checkOptions(question.Correct, question.Options()); err != nil {
			return Quiz{}, errors.Wrapf(err, "question %d", idx+1)
		}
	}

	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func trimOptions(options []string) []string {
	if len(options) == 0 {
		return nil
	}
	out := make([]string, 0, len(options))
	for _, option := range options {
		if trimmed := strings.TrimSpace(option); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// checkOptions requires distinct options with the correct answer listed
// exactly once; letters are resolved to the first matching option.
func checkOptions(correct string, options []string) error {
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		if _, dup := seen[option]; dup {
			return errors.Errorf("option %q is listed twice", option)
		}
		seen[option] = struct{}{}
	}
	if _, ok := seen[correct]; !ok {
		return errors.Errorf("correct answer %q is not among the options", correct)
	}
	if len(options) < 2 {
		return errors.New("no incorrect answers")
	}
	return nil
}
