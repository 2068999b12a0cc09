package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiz-client/internal/apperr"
	"quiz-client/internal/auth"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
	"quiz-client/internal/storage"
)

type fakeClient struct {
	mu          sync.Mutex
	quiz        quiz.Quiz
	fetchErr    error
	submitErr   error
	fetchGate   chan struct{}
	submitGate  chan struct{}
	submits     int
	lastSlots   []quiz.Slot
	lastAnswers []quiz.SubmittedAnswer
}

func (f *fakeClient) FetchQuiz(ctx context.Context, key quiz.Key) (quiz.Quiz, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return quiz.Quiz{}, f.fetchErr
	}
	return f.quiz, nil
}

func (f *fakeClient) SubmitAttempt(ctx context.Context, key quiz.Key, q quiz.Quiz, slots []quiz.Slot) (quiz.Result, error) {
	if f.submitGate != nil {
		<-f.submitGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.lastSlots = slots
	f.lastAnswers = quiz.EncodeAnswers(q, slots)
	if f.submitErr != nil {
		return quiz.Result{}, f.submitErr
	}
	return quiz.Grade(q, f.lastAnswers), nil
}

type memoryStore struct {
	mu     sync.Mutex
	record *storage.SessionRecord
	saves  int
	closed bool
}

func (m *memoryStore) SaveSession(_ context.Context, record storage.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = &record
	m.saves++
	return nil
}

func (m *memoryStore) LoadSession(context.Context) (storage.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	return *m.record, nil
}

func (m *memoryStore) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memoryStore) saved() *storage.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func keepOrder(int, func(i, j int)) {}

func testQuiz() quiz.Quiz {
	return quiz.Quiz{
		Name:            "Planets",
		DurationMinutes: 1,
		Questions: []quiz.Question{
			{Prompt: "Largest planet?", Correct: "Jupiter", Alternatives: "Mars|Venus|Earth"},
			{Prompt: "Red planet?", Correct: "Mars", Alternatives: "Jupiter|Venus|Earth"},
			{Prompt: "Closest to the sun?", Correct: "Mercury", Alternatives: "Venus|Earth|Mars"},
		},
	}
}

var testKey = quiz.Key{Class: "6", Subject: "Science", Topic: "Space", Name: "Planets"}

type fixture struct {
	controller *Controller
	client     *fakeClient
	store      *memoryStore
	clock      *testClock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	client := &fakeClient{quiz: testQuiz()}
	store := &memoryStore{}
	if opts.Shuffle == nil {
		opts.Shuffle = keepOrder
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Hour
	}
	opts.Logger = log.New(io.Discard, "", 0)

	controller := NewController(session.NewState(clock.Now), client, store, opts)
	t.Cleanup(func() { _ = controller.Close() })
	return &fixture{controller: controller, client: client, store: store, clock: clock}
}

func TestStartQuizLoadsShufflesAndPersists(t *testing.T) {
	f := newFixture(t, Options{})

	require.NoError(t, f.controller.StartQuiz(context.Background(), testKey))
	require.True(t, f.controller.ConfirmLeave())
	require.Equal(t, testKey, f.controller.Key())

	q, ok := f.controller.State().Quiz()
	require.True(t, ok)
	for _, question := range q.Questions {
		require.NotEmpty(t, question.Shuffled, "options are fixed once per attempt")
	}

	saved := f.store.saved()
	require.NotNil(t, saved)
	require.Equal(t, testKey, saved.Key)
	require.Len(t, saved.Snapshot.Answers, 3)
}

func TestStartQuizPropagatesFetchErrors(t *testing.T) {
	logouts := 0
	guard := auth.NewGuard(func() { logouts++ })
	guard.Arm()
	f := newFixture(t, Options{Guard: guard})
	f.client.fetchErr = apperr.ErrAuth

	err := f.controller.StartQuiz(context.Background(), testKey)
	require.ErrorIs(t, err, apperr.ErrAuth)
	require.Equal(t, 1, logouts)
	require.Equal(t, session.Idle, f.controller.State().Phase())
}

func TestAnswerScenarioIsPersisted(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.controller.StartQuiz(context.Background(), testKey))

	f.controller.Select("Jupiter")
	f.controller.Advance()
	require.False(t, f.controller.Skip())
	f.controller.Select("Mercury")
	require.True(t, f.controller.Finish())
	require.False(t, f.controller.ConfirmLeave())

	saved := f.store.saved()
	require.True(t, saved.Snapshot.ShowResults)
	require.Equal(t, "Jupiter", *saved.Snapshot.Answers[0])
	require.Nil(t, saved.Snapshot.Answers[1])
	require.Equal(t, "Mercury", *saved.Snapshot.Answers[2])
}

func TestResultsSubmitsOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.controller.StartQuiz(ctx, testKey))

	_, err := f.controller.Results(ctx)
	require.ErrorIs(t, err, ErrNotFinished)

	f.controller.Select("Jupiter")
	f.controller.Finish()

	result, err := f.controller.Results(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Correct)
	require.Equal(t, 2, result.Skipped)
	require.Equal(t, []string{"A"}, f.client.lastAnswers[0].Options)

	again, err := f.controller.Results(ctx)
	require.NoError(t, err)
	require.Equal(t, result, again)
	require.Equal(t, 1, f.client.submits)

	saved := f.store.saved()
	require.NotNil(t, saved.Result)
	require.Equal(t, 1, saved.Result.Correct)
}

func TestResultsFallsBackToAllSkipped(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.controller.StartQuiz(ctx, testKey))
	f.controller.Select("Jupiter")
	f.controller.Finish()
	f.client.submitErr = apperr.ErrNetwork

	result, err := f.controller.Results(ctx)
	require.ErrorIs(t, err, apperr.ErrNetwork)
	require.True(t, result.Synthetic)
	require.Equal(t, 3, result.Skipped)

	cached, err := f.controller.Results(ctx)
	require.NoError(t, err)
	require.True(t, cached.Synthetic)
	require.Equal(t, 1, f.client.submits)
}

func TestAuthFailureForcesLogoutOnce(t *testing.T) {
	var f *fixture
	logouts := 0
	guard := auth.NewGuard(func() {
		logouts++
		f.controller.Reset()
	})
	guard.Arm()
	f = newFixture(t, Options{Guard: guard})
	ctx := context.Background()

	require.NoError(t, f.controller.StartQuiz(ctx, testKey))
	f.controller.Finish()
	f.client.submitErr = apperr.ErrAuth

	_, err := f.controller.Results(ctx)
	require.ErrorIs(t, err, ErrSessionReset, "the logout hook reset the session")
	require.Equal(t, 1, logouts)
	require.Equal(t, session.Idle, f.controller.State().Phase())
	require.Nil(t, f.store.saved())

	f.client.fetchErr = apperr.ErrAuth
	require.Error(t, f.controller.StartQuiz(ctx, testKey))
	require.Equal(t, 1, logouts, "guard fires once until the next login")
}

func TestLateFetchAfterResetIsDiscarded(t *testing.T) {
	f := newFixture(t, Options{})
	f.client.fetchGate = make(chan struct{})

	errs := make(chan error, 1)
	go func() {
		errs <- f.controller.StartQuiz(context.Background(), testKey)
	}()

	// The fetch is parked on the gate; give StartQuiz time to read the generation.
	time.Sleep(20 * time.Millisecond)
	f.controller.Reset()
	close(f.client.fetchGate)

	require.ErrorIs(t, <-errs, ErrSessionReset)
	require.Equal(t, session.Idle, f.controller.State().Phase())
}

func TestLateSubmitAfterResetIsDiscarded(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.controller.StartQuiz(ctx, testKey))
	f.controller.Finish()
	f.client.submitGate = make(chan struct{})

	errs := make(chan error, 1)
	go func() {
		_, err := f.controller.Results(ctx)
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	f.controller.Reset()
	close(f.client.submitGate)

	require.ErrorIs(t, <-errs, ErrSessionReset)
	require.Nil(t, f.store.saved())
}

func TestTimerExpiryFinishesAndPersists(t *testing.T) {
	expired := make(chan struct{}, 1)
	f := newFixture(t, Options{
		TickInterval: time.Millisecond,
		OnExpire:     func() { expired <- struct{}{} },
	})
	require.NoError(t, f.controller.StartQuiz(context.Background(), testKey))

	f.clock.Advance(2 * time.Minute)

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry callback was not called")
	}
	require.Equal(t, session.Finished, f.controller.State().Phase())
	require.Equal(t, 0, f.controller.State().Remaining())
	require.True(t, f.store.saved().Snapshot.ShowResults)
}

func TestResumeLast(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	require.ErrorIs(t, f.controller.ResumeLast(ctx), ErrNoSession)

	require.NoError(t, f.controller.StartQuiz(ctx, testKey))
	f.controller.Select("Jupiter")
	f.controller.JumpTo(2)
	f.clock.Advance(10 * time.Second)

	// A fresh controller over the same store, as after a restart.
	restarted := NewController(session.NewState(f.clock.Now), f.client, f.store, Options{
		Logger:       log.New(io.Discard, "", 0),
		TickInterval: time.Hour,
	})
	defer restarted.Close()

	record, err := restarted.LastSession(ctx)
	require.NoError(t, err)
	require.Equal(t, testKey, record.Key)

	require.NoError(t, restarted.ResumeLast(ctx))
	state := restarted.State()
	require.Equal(t, session.InProgress, state.Phase())
	require.Equal(t, 2, state.CurrentIndex())
	require.Equal(t, 50, state.Remaining())
	require.Equal(t, quiz.Answered("Jupiter"), state.Slots()[0])
	require.True(t, restarted.ConfirmLeave())
}

func TestCloseClosesStore(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.controller.StartQuiz(context.Background(), testKey))
	require.NoError(t, f.controller.Close())
	require.True(t, f.store.closed)
}

func TestResetClearsEverything(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.controller.StartQuiz(context.Background(), testKey))

	f.controller.Reset()
	require.False(t, f.controller.ConfirmLeave())
	require.Equal(t, quiz.Key{}, f.controller.Key())
	require.Nil(t, f.store.saved())

	_, err := f.controller.LastSession(context.Background())
	require.True(t, errors.Is(err, storage.ErrNotFound))
}
