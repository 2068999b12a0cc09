package bank

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"quiz-client/internal/quiz"
)

// questionID is stable for a question at a given position of a quiz, so
// re-uploading the same document keeps the same ids.
func questionID(key quiz.Key, position int, prompt string) string {
	return fmt.Sprintf("q_%016x", xxh3.HashString(key.String()+"#"+strconv.Itoa(position)+"#"+prompt))
}

// SaveQuiz stores q under key, replacing any quiz already there. Options are
// shuffled once here and kept, so the letters a client sends are scored
// against the order it was shown.
func (s *Store) SaveQuiz(ctx context.Context, key quiz.Key, q quiz.Quiz) (quiz.Summary, error) {
	if err := key.Validate(); err != nil {
		return quiz.Summary{}, err
	}
	if err := q.Validate(); err != nil {
		return quiz.Summary{}, err
	}

	q = q.Clone()
	q.Name = key.Name
	q.ShuffleOptions(s.shuffle)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.Summary{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM questions WHERE class = ? AND subject = ? AND topic = ? AND quiz_name = ?`,
		key.Class, key.Subject, key.Topic, key.Name,
	); err != nil {
		return quiz.Summary{}, errors.Wrap(err, "failed to clear old questions")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO quizzes (class, subject, topic, name, category, duration_minutes, question_count, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Class, key.Subject, key.Topic, key.Name,
		q.Category, q.DurationMinutes, len(q.Questions), s.now().UTC().UnixNano(),
	); err != nil {
		return quiz.Summary{}, errors.Wrap(err, "failed to save quiz")
	}

	for idx, question := range q.Questions {
		optionsJSON, err := json.Marshal(question.Shuffled)
		if err != nil {
			return quiz.Summary{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (question_id, class, subject, topic, quiz_name, position, prompt, correct, alternatives, explanation, options_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			questionID(key, idx, question.Prompt),
			key.Class, key.Subject, key.Topic, key.Name, idx,
			question.Prompt, question.Correct, question.Alternatives, question.Explanation, string(optionsJSON),
		); err != nil {
			return quiz.Summary{}, errors.Wrapf(err, "failed to save question %d", idx+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return quiz.Summary{}, err
	}
	return q.Summary(), nil
}

func (s *Store) GetQuiz(ctx context.Context, key quiz.Key) (quiz.Quiz, error) {
	q := quiz.Quiz{Name: key.Name}
	err := s.db.QueryRowContext(ctx,
		`SELECT category, duration_minutes FROM quizzes
		 WHERE class = ? AND subject = ? AND topic = ? AND name = ?`,
		key.Class, key.Subject, key.Topic, key.Name,
	).Scan(&q.Category, &q.DurationMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Quiz{}, ErrQuizNotFound
		}
		return quiz.Quiz{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT prompt, correct, alternatives, explanation, options_json FROM questions
		 WHERE class = ? AND subject = ? AND topic = ? AND quiz_name = ?
		 ORDER BY position ASC`,
		key.Class, key.Subject, key.Topic, key.Name,
	)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			question    quiz.Question
			optionsJSON string
		)
		if err := rows.Scan(&question.Prompt, &question.Correct, &question.Alternatives, &question.Explanation, &optionsJSON); err != nil {
			return quiz.Quiz{}, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &question.Shuffled); err != nil {
			return quiz.Quiz{}, errors.Wrap(err, "failed to decode stored options")
		}
		q.Questions = append(q.Questions, question)
	}
	return q, rows.Err()
}

func (s *Store) ListClasses(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT class FROM quizzes ORDER BY class`)
}

func (s *Store) ListSubjects(ctx context.Context, class string) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT subject FROM quizzes WHERE class = ? ORDER BY subject`, class)
}

func (s *Store) ListTopics(ctx context.Context, class, subject string) ([]string, error) {
	return s.distinct(ctx,
		`SELECT DISTINCT topic FROM quizzes WHERE class = ? AND subject = ? ORDER BY topic`,
		class, subject,
	)
}

func (s *Store) ListQuizzes(ctx context.Context, class, subject, topic string) ([]quiz.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, category, duration_minutes, question_count FROM quizzes
		 WHERE class = ? AND subject = ? AND topic = ?
		 ORDER BY created_at_unix DESC, name ASC`,
		class, subject, topic,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]quiz.Summary, 0)
	for rows.Next() {
		var summary quiz.Summary
		if err := rows.Scan(&summary.Name, &summary.Category, &summary.DurationMinutes, &summary.QuestionCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Store) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// Submission is one scored attempt.
type Submission struct {
	ID        string
	StudentID string
	Key       quiz.Key
	Result    quiz.Result
}

// Submit scores the answers against the stored option order and records the
// attempt. Every submission is kept; a student may retake a quiz.
func (s *Store) Submit(ctx context.Context, studentID string, key quiz.Key, answers []quiz.SubmittedAnswer) (Submission, error) {
	q, err := s.GetQuiz(ctx, key)
	if err != nil {
		return Submission{}, err
	}
	return s.record(ctx, studentID, key, q, answers)
}

func (s *Store) record(ctx context.Context, studentID string, key quiz.Key, q quiz.Quiz, answers []quiz.SubmittedAnswer) (Submission, error) {
	result := quiz.Grade(q, answers)
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return Submission{}, err
	}

	submission := Submission{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Key:       key,
		Result:    result,
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, student_id, class, subject, topic, quiz_name, answers_json, correct, total, percentage, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submission.ID, studentID, key.Class, key.Subject, key.Topic, key.Name,
		string(answersJSON), result.Correct, result.Total, result.Percentage, s.now().UTC().UnixNano(),
	); err != nil {
		return Submission{}, errors.Wrap(err, "failed to record submission")
	}
	return submission, nil
}

func (s *Store) CountSubmissions(ctx context.Context, studentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE student_id = ?`, studentID).Scan(&count)
	return count, err
}
