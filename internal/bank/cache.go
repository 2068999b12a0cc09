package bank

import (
	"context"
	"sync"

	"quiz-client/internal/quiz"
)

// CachedStore keeps fetched quizzes in memory. Every attempt fetches its quiz
// once and submits against it once, so reads dominate; a save drops the entry.
type CachedStore struct {
	*Store

	mu      sync.RWMutex
	quizzes map[quiz.Key]quiz.Quiz
}

func NewCachedStore(store *Store) *CachedStore {
	return &CachedStore{
		Store:   store,
		quizzes: make(map[quiz.Key]quiz.Quiz),
	}
}

// GetQuiz returns a copy, so callers may redact or shuffle it freely.
func (c *CachedStore) GetQuiz(ctx context.Context, key quiz.Key) (quiz.Quiz, error) {
	c.mu.RLock()
	cached, ok := c.quizzes[key]
	c.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	q, err := c.Store.GetQuiz(ctx, key)
	if err != nil {
		return quiz.Quiz{}, err
	}

	c.mu.Lock()
	c.quizzes[key] = q
	c.mu.Unlock()
	return q.Clone(), nil
}

func (c *CachedStore) SaveQuiz(ctx context.Context, key quiz.Key, q quiz.Quiz) (quiz.Summary, error) {
	c.mu.Lock()
	delete(c.quizzes, key)
	c.mu.Unlock()

	summary, err := c.Store.SaveQuiz(ctx, key, q)

	// A read racing the save may have cached the old version.
	c.mu.Lock()
	delete(c.quizzes, key)
	c.mu.Unlock()
	return summary, err
}

func (c *CachedStore) Submit(ctx context.Context, studentID string, key quiz.Key, answers []quiz.SubmittedAnswer) (Submission, error) {
	q, err := c.GetQuiz(ctx, key)
	if err != nil {
		return Submission{}, err
	}
	return c.Store.record(ctx, studentID, key, q, answers)
}
