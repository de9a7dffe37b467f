// Package board is the client side of the task board: a REST client, an
// explicit credential session, and the view-model that mirrors the task set
// and reconciles drag gestures optimistically against the server.
package board

import (
	"sync"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

// Session holds the client's credential state: either anonymous or
// authenticated with a user snapshot and bearer token. It is injected into
// the REST client and the view-model instead of being read from ambient
// storage, and fires a callback when the server invalidates it.
type Session struct {
	mu           sync.RWMutex
	user         *domain.User
	token        string
	onInvalidate func()
}

// NewSession creates an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// OnInvalidate registers the callback fired when credentials are rejected by
// the server. Typical callers use it to force a re-login flow.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	s.onInvalidate = fn
	s.mu.Unlock()
}

// Authenticate stores the user snapshot and token after a successful login
// or registration.
func (s *Session) Authenticate(user domain.User, token string) {
	s.mu.Lock()
	u := user
	s.user = &u
	s.token = token
	s.mu.Unlock()
}

// Clear drops the credentials without firing the invalidation callback. Used
// for explicit logout.
func (s *Session) Clear() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
}

// Invalidate drops the credentials and fires the invalidation callback. The
// REST client calls this on any 401.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	fn := s.onInvalidate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Token returns the bearer token, empty when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns actual credentials, reporting false when anonymous.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether the session holds credentials.
func (s *Session) Authenticated() bool {
	_, ok := s.User()
	return ok
}
