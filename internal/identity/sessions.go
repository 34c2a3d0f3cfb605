package identity

import (
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a bearer token stays valid.
const DefaultSessionTTL = 24 * time.Hour

type session struct {
	user          domain.User
	providerToken string
	expires       time.Time
}

// Sessions maps bearer tokens to authenticated users. Memory only.
// Expired tokens are dropped on lookup and swept on every Issue.
type Sessions struct {
	TTL time.Duration
	Now func() time.Time

	mu       sync.Mutex
	sessions map[string]session
}

// NewSessions returns an empty session table with DefaultSessionTTL.
func NewSessions() *Sessions {
	return &Sessions{TTL: DefaultSessionTTL, Now: time.Now, sessions: make(map[string]session)}
}

// Issue creates a bearer token for user.
func (s *Sessions) Issue(user domain.User, providerToken string) string {
	token := uuid.New().String()
	now := s.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for t, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, t)
		}
	}
	s.sessions[token] = session{user: user, providerToken: providerToken, expires: now.Add(s.TTL)}
	return token
}

// Lookup returns the user behind a live token.
func (s *Sessions) Lookup(token string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return domain.User{}, false
	}
	if !s.Now().Before(sess.expires) {
		delete(s.sessions, token)
		return domain.User{}, false
	}
	return sess.user, true
}

// Revoke removes token and returns the provider credential it carried.
func (s *Sessions) Revoke(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	delete(s.sessions, token)
	return sess.providerToken, ok
}

// Len reports how many tokens are held, expired ones included until swept.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
