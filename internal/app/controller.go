package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"quiz-client/internal/auth"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
	"quiz-client/internal/storage"
)

var (
	// ErrSessionReset is returned for a response that arrived after the
	// attempt it belonged to was reset or replaced.
	ErrSessionReset = errors.New("session was reset while the request was in flight")
	ErrNotFinished  = errors.New("quiz is not finished yet")
	ErrNoSession    = errors.New("no quiz in progress")
)

type QuizClient interface {
	FetchQuiz(ctx context.Context, key quiz.Key) (quiz.Quiz, error)
	SubmitAttempt(ctx context.Context, key quiz.Key, q quiz.Quiz, slots []quiz.Slot) (quiz.Result, error)
}

type SessionStore interface {
	SaveSession(ctx context.Context, record storage.SessionRecord) error
	LoadSession(ctx context.Context) (storage.SessionRecord, error)
	ClearSession(ctx context.Context) error
}

type Options struct {
	Guard        *auth.Guard
	Logger       *log.Logger
	TickInterval time.Duration
	Shuffle      quiz.ShuffleFunc
	// OnExpire runs on the timer goroutine when the countdown reaches zero.
	OnExpire func()
}

// Controller owns the session state. Every mutation goes through it so the
// snapshot and the timer stay in step with the state machine.
type Controller struct {
	state  *session.State
	client QuizClient
	store  SessionStore
	opts   Options
	logger *log.Logger

	submitMu sync.Mutex

	mu         sync.Mutex
	key        quiz.Key
	generation uint64
	result     *quiz.Result
	stopTimer  context.CancelFunc
}

func NewController(state *session.State, client QuizClient, store SessionStore, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		state:  state,
		client: client,
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// State exposes the read accessors to the UI.
func (c *Controller) State() *session.State {
	return c.state
}

func (c *Controller) Key() quiz.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// StartQuiz fetches the quiz, fixes its option order for the whole attempt and
// starts the countdown. It replaces any current attempt; ask first with
// ConfirmLeave.
func (c *Controller) StartQuiz(ctx context.Context, key quiz.Key) error {
	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	fetched, err := c.client.FetchQuiz(ctx, key)
	if err != nil {
		c.checkAuth(err)
		return err
	}

	q := fetched.Clone()
	q.ShuffleOptions(c.opts.Shuffle)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return ErrSessionReset
	}
	if err := c.state.Load(q); err != nil {
		return err
	}
	c.stopTimerLocked()
	c.generation++
	c.key = key
	c.result = nil
	c.persistLocked(ctx)
	c.startTimerLocked()
	return nil
}

func (c *Controller) Select(answer string) {
	c.mutate(func() { c.state.Select(answer) })
}

func (c *Controller) Advance() {
	c.mutate(c.state.Advance)
}

func (c *Controller) Retreat() {
	c.mutate(c.state.Retreat)
}

func (c *Controller) JumpTo(index int) {
	c.mutate(func() { c.state.JumpTo(index) })
}

func (c *Controller) Skip() bool {
	var finished bool
	c.mutate(func() { finished = c.state.Skip() })
	return finished
}

func (c *Controller) Finish() bool {
	var changed bool
	c.mutate(func() { changed = c.state.Finish() })
	return changed
}

// Results submits the attempt once and caches the outcome for the session.
// When scoring fails the all-skipped result is returned together with the
// error, so the caller always has something to show.
func (c *Controller) Results(ctx context.Context) (quiz.Result, error) {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	c.mu.Lock()
	if c.result != nil {
		result := *c.result
		c.mu.Unlock()
		return result, nil
	}
	if c.state.Phase() != session.Finished {
		c.mu.Unlock()
		return quiz.Result{}, ErrNotFinished
	}
	generation := c.generation
	key := c.key
	q, _ := c.state.Quiz()
	slots := c.state.Slots()
	c.mu.Unlock()

	result, err := c.client.SubmitAttempt(ctx, key, q, slots)
	if err != nil {
		c.logger.Printf("submit %s failed, showing all-skipped result: %v", key, err)
		c.checkAuth(err)
		result = quiz.AllSkipped(q)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return quiz.Result{}, ErrSessionReset
	}
	c.result = &result
	c.persistLocked(ctx)
	return result, err
}

// Reset returns to idle and drops the stored snapshot. Responses still in
// flight for the old attempt are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.state.Reset()
	c.generation++
	c.key = quiz.Key{}
	c.result = nil
	c.mu.Unlock()

	if err := c.store.ClearSession(context.Background()); err != nil {
		c.logger.Printf("failed to clear stored session: %v", err)
	}
}

// ConfirmLeave reports whether leaving now would abandon a running attempt.
func (c *Controller) ConfirmLeave() bool {
	return c.state.IsActive()
}

func (c *Controller) LastSession(ctx context.Context) (storage.SessionRecord, error) {
	return c.store.LoadSession(ctx)
}

// ResumeLast restores the stored attempt. The countdown continues from the
// original start time, so time spent away still counts.
func (c *Controller) ResumeLast(ctx context.Context) error {
	record, err := c.store.LoadSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNoSession
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.Restore(record.Snapshot); err != nil {
		return err
	}
	c.stopTimerLocked()
	c.generation++
	c.key = record.Key
	c.result = record.Result
	c.persistLocked(ctx)
	if c.state.Phase() == session.InProgress {
		c.startTimerLocked()
	}
	return nil
}

// Close stops the timer, saves the last snapshot and closes the store when it
// can be closed.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()

	var result *multierror.Error
	if err := c.saveLocked(context.Background()); err != nil {
		result = multierror.Append(result, err)
	}
	if closer, ok := c.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (c *Controller) mutate(apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply()
	if c.state.Phase() != session.InProgress {
		c.stopTimerLocked()
	}
	c.persistLocked(context.Background())
}

func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.saveLocked(ctx); err != nil {
		c.logger.Printf("failed to save session: %v", err)
	}
}

func (c *Controller) saveLocked(ctx context.Context) error {
	snapshot, ok := c.state.Snapshot()
	if !ok {
		return nil
	}
	return c.store.SaveSession(ctx, storage.SessionRecord{
		Key:      c.key,
		Snapshot: snapshot,
		Result:   c.result,
	})
}

func (c *Controller) startTimerLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.stopTimer = cancel
	generation := c.generation
	go session.RunTicker(ctx, c.state, c.opts.TickInterval, func() {
		c.expired(generation)
	})
}

// stopTimerLocked does not wait for the ticker goroutine; expired checks the
// generation before touching anything.
func (c *Controller) stopTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

func (c *Controller) expired(generation uint64) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.persistLocked(context.Background())
	c.mu.Unlock()

	if c.opts.OnExpire != nil {
		c.opts.OnExpire()
	}
}

func (c *Controller) checkAuth(err error) {
	if c.opts.Guard != nil {
		c.opts.Guard.Check(err)
	}
}
