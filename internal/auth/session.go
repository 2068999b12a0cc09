package auth

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"quiz-client/internal/apperr"
)

// Session holds the current identity and hands out its bearer token.
type Session struct {
	mu       sync.RWMutex
	identity *Identity
	now      func() time.Time
}

func NewSession(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{now: now}
}

func (s *Session) SignIn(identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}

func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Token fails with apperr.ErrAuth when nobody is signed in or the token has
// expired. There is no refresh; expiry means logging in again.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return "", errors.Wrap(apperr.ErrAuth, "not signed in")
	}
	if s.identity.Expired(s.now()) {
		return "", errors.Wrap(apperr.ErrAuth, "token expired")
	}
	return s.identity.Token, nil
}
