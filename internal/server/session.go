package server

import (
	"errors"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
)

const sessionTTL = 5 * time.Minute

type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
	}
}

type Session struct {
	ID        string
	Username  string
	Challenge protocol.URLEncodedBase64
	CreatedAt time.Time
}

// NewSession mints a registration session with a fresh challenge. Stale
// sessions are pruned on the way in.
func (s *Sessions) NewSession(username string) (*Session, error) {
	challenge, err := protocol.CreateChallenge()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if time.Since(sess.CreatedAt) > sessionTTL {
			delete(s.sessions, id)
		}
	}

	session := &Session{
		ID:        uuid.New().String(),
		Username:  username,
		Challenge: challenge,
		CreatedAt: time.Now(),
	}
	s.sessions[session.ID] = session
	return session, nil
}

// TakeSession returns and removes a live session; a session is good for one
// finish attempt.
func (s *Sessions) TakeSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	delete(s.sessions, id)
	if time.Since(session.CreatedAt) > sessionTTL {
		return nil, errors.New("session expired")
	}
	return session, nil
}
