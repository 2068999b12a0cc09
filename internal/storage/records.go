package storage

import (
	"context"
	"time"

	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
)

// SessionRecord is the last attempt as kept on disk.
type SessionRecord struct {
	Key      quiz.Key         `json:"key"`
	Snapshot session.Snapshot `json:"snapshot"`
	Result   *quiz.Result     `json:"result,omitempty"`
	SavedAt  time.Time        `json:"saved_at"`
}

// Credentials are remembered only on opt-in. The password is never stored;
// the token lets the next start skip the login form until it expires.
type Credentials struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s *SQLiteStore) SaveSession(ctx context.Context, record SessionRecord) error {
	if record.SavedAt.IsZero() {
		record.SavedAt = s.now().UTC()
	}
	return s.put(ctx, keySession, record)
}

func (s *SQLiteStore) LoadSession(ctx context.Context) (SessionRecord, error) {
	var record SessionRecord
	if err := s.get(ctx, keySession, &record); err != nil {
		return SessionRecord{}, err
	}
	return record, nil
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return s.remove(ctx, keySession)
}

func (s *SQLiteStore) RememberCredentials(ctx context.Context, creds Credentials) error {
	return s.put(ctx, keyCredentials, creds)
}

func (s *SQLiteStore) RecalledCredentials(ctx context.Context) (Credentials, error) {
	var creds Credentials
	if err := s.get(ctx, keyCredentials, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (s *SQLiteStore) ForgetCredentials(ctx context.Context) error {
	return s.remove(ctx, keyCredentials)
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, student quiz.Student) error {
	return s.put(ctx, keyProfile, student)
}

func (s *SQLiteStore) LoadProfile(ctx context.Context) (quiz.Student, error) {
	var student quiz.Student
	if err := s.get(ctx, keyProfile, &student); err != nil {
		return quiz.Student{}, err
	}
	return student, nil
}

// ClearUser drops everything tied to the signed-in user.
func (s *SQLiteStore) ClearUser(ctx context.Context) error {
	return s.remove(ctx, keyCredentials, keyProfile, keySession)
}
