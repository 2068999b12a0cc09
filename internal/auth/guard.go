package auth

import (
	"errors"
	"sync"

	"quiz-client/internal/apperr"
)

// Guard turns the first auth failure after a login into a forced logout.
// Later failures are ignored until Arm is called again.
type Guard struct {
	mu       sync.Mutex
	armed    bool
	onLogout func()
}

func NewGuard(onLogout func()) *Guard {
	return &Guard{onLogout: onLogout}
}

// Arm is called on every successful login.
func (g *Guard) Arm() {
	g.mu.Lock()
	g.armed = true
	g.mu.Unlock()
}

// Disarm is called on a voluntary logout so the next request made while
// signed out is not mistaken for an expired session.
func (g *Guard) Disarm() {
	g.mu.Lock()
	g.armed = false
	g.mu.Unlock()
}

// Check reports whether err triggered the logout hook.
func (g *Guard) Check(err error) bool {
	if !errors.Is(err, apperr.ErrAuth) {
		return false
	}

	g.mu.Lock()
	if !g.armed {
		g.mu.Unlock()
		return false
	}
	g.armed = false
	g.mu.Unlock()

	if g.onLogout != nil {
		g.onLogout()
	}
	return true
}
