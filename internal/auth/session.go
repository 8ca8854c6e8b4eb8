// Package auth holds the authenticated session used to talk to the remote
// store. Credential storage lives outside this process.
package auth

import (
	"strings"
	"sync"
)

// Session is an in-memory bearer token holder, safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns a session, authenticated when token is non-empty.
func NewSession(token string) *Session {
	return &Session{token: strings.TrimSpace(token)}
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.SetToken("")
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
