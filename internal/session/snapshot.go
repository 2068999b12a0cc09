package session

import (
	"errors"
	"time"

	"quiz-client/internal/quiz"
)

var ErrSnapshotMismatch = errors.New("snapshot answers do not match quiz questions")

// Snapshot is the persisted form of a State. Answers uses nil for an
// explicit skip and "" for an unanswered slot.
type Snapshot struct {
	Quiz        quiz.Quiz `json:"quiz"`
	Current     int       `json:"current_question_index"`
	Answers     []*string `json:"user_answers"`
	StartedAt   time.Time `json:"start_time"`
	Remaining   int       `json:"time_remaining"`
	ShowResults bool      `json:"show_results"`
}

// Snapshot returns false when no quiz is loaded.
func (s *State) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return Snapshot{}, false
	}

	answers := make([]*string, len(s.slots))
	for idx, slot := range s.slots {
		if slot.Skipped {
			continue
		}
		value := slot.Value
		answers[idx] = &value
	}

	return Snapshot{
		Quiz:        s.quiz.Clone(),
		Current:     s.current,
		Answers:     answers,
		StartedAt:   s.startedAt,
		Remaining:   s.remaining,
		ShowResults: s.showResults,
	}, true
}

// Restore replaces the state with a persisted attempt. The countdown is
// recomputed from the stored start time, so an attempt whose time ran out
// while the app was closed comes back finished.
func (s *State) Restore(snap Snapshot) error {
	if err := snap.Quiz.Validate(); err != nil {
		return err
	}
	if len(snap.Answers) != len(snap.Quiz.Questions) {
		return ErrSnapshotMismatch
	}

	slots := quiz.NewSlots(len(snap.Answers))
	for idx, answer := range snap.Answers {
		if answer == nil {
			slots[idx] = quiz.SkippedSlot()
			continue
		}
		slots[idx] = quiz.Answered(*answer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.quiz = snap.Quiz
	s.slots = slots
	s.current = s.clamp(snap.Current)
	s.startedAt = snap.StartedAt
	s.remaining = snap.Remaining
	if limit := snap.Quiz.DurationSeconds(); s.remaining > limit || s.remaining < 0 {
		s.remaining = limit
	}
	s.showResults = snap.ShowResults
	if !s.showResults {
		s.recompute()
	}
	return nil
}
