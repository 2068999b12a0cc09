package session

import (
	"sync"
	"time"

	"quiz-client/internal/quiz"
)

type Phase int

const (
	Idle Phase = iota
	InProgress
	Finished
)

func (p Phase) String() string {
	switch p {
	case InProgress:
		return "in progress"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Progress counts slots by state for the status line.
type Progress struct {
	Answered   int
	Skipped    int
	Unanswered int
	Total      int
}

// State is one quiz attempt. Every operation except Load and Restore is
// total: calls that make no sense in the current phase are no-ops.
type State struct {
	mu  sync.Mutex
	now func() time.Time

	loaded      bool
	quiz        quiz.Quiz
	current     int
	slots       []quiz.Slot
	startedAt   time.Time
	remaining   int
	showResults bool
}

// NewState returns an idle state. A nil clock uses time.Now.
func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{now: now}
}

// Load starts a new attempt, replacing any previous one without asking.
func (s *State) Load(q quiz.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.quiz = q
	s.current = 0
	s.slots = quiz.NewSlots(len(q.Questions))
	s.startedAt = s.now()
	s.remaining = q.DurationSeconds()
	s.showResults = false
	return nil
}

func (s *State) Select(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inProgress() {
		return
	}
	s.slots[s.current] = quiz.Answered(answer)
}

// Advance and Retreat stay available after results are shown so the attempt
// can be reviewed.
func (s *State) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return
	}
	s.current = s.clamp(s.current + 1)
}

func (s *State) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return
	}
	s.current = s.clamp(s.current - 1)
}

// JumpTo moves to index, clamped into the question range.
func (s *State) JumpTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return
	}
	s.current = s.clamp(index)
}

// Skip marks the current slot skipped and moves on. On the last question it
// finishes the attempt instead and reports true.
func (s *State) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inProgress() {
		return false
	}
	s.slots[s.current] = quiz.SkippedSlot()
	if s.current == len(s.slots)-1 {
		s.showResults = true
		return true
	}
	s.current++
	return false
}

// Finish shows results regardless of time left. It reports whether the call
// changed the phase.
func (s *State) Finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inProgress() {
		return false
	}
	s.showResults = true
	return true
}

// Tick recomputes the countdown from the wall clock. It reports true only on
// the call that expires the attempt.
func (s *State) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inProgress() {
		return false
	}
	return s.recompute()
}

func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	s.quiz = quiz.Quiz{}
	s.current = 0
	s.slots = nil
	s.startedAt = time.Time{}
	s.remaining = 0
	s.showResults = false
}

// IsActive reports whether leaving now would abandon a running attempt.
func (s *State) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loaded && !s.showResults && s.remaining > 0
}

func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.loaded:
		return Idle
	case s.showResults:
		return Finished
	default:
		return InProgress
	}
}

func (s *State) Quiz() (quiz.Quiz, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.quiz, s.loaded
}

func (s *State) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

func (s *State) CurrentQuestion() (quiz.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return quiz.Question{}, false
	}
	return s.quiz.Questions[s.current], true
}

func (s *State) Slots() []quiz.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]quiz.Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *State) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remaining
}

func (s *State) ShowResults() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.showResults
}

func (s *State) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := Progress{Total: len(s.slots)}
	for _, slot := range s.slots {
		switch {
		case slot.Skipped:
			progress.Skipped++
		case slot.IsAnswered():
			progress.Answered++
		default:
			progress.Unanswered++
		}
	}
	return progress
}

func (s *State) inProgress() bool {
	return s.loaded && !s.showResults
}

// recompute never raises the countdown, so a clock that steps backwards
// cannot give time back.
func (s *State) recompute() bool {
	elapsed := int(s.now().Sub(s.startedAt) / time.Second)
	remaining := s.quiz.DurationSeconds() - elapsed
	if remaining < s.remaining {
		s.remaining = remaining
	}
	if s.remaining > 0 {
		return false
	}
	s.remaining = 0
	s.showResults = true
	return true
}

func (s *State) clamp(index int) int {
	if index < 0 {
		return 0
	}
	if last := len(s.quiz.Questions) - 1; index > last {
		return last
	}
	return index
}
