package tools

import (
	"sync"
	"time"
)

// UploadSession marks that the next document from a user in a conversation
// should be ingested into a specific project.
type UploadSession struct {
	ProjectID   int64
	ProjectName string
	ExpiresAt   time.Time
}

type sessionKey struct {
	userID int64
	chatID int64
}

// SessionStore holds pending upload sessions, scoped per (user,
// conversation) and expired after a TTL. It is an explicit handle passed to
// the handlers that need it, never process-global state.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[sessionKey]UploadSession
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a session store with the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[sessionKey]UploadSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the store's clock for tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Begin opens (or replaces) the pending upload session for a user in a
// conversation.
func (s *SessionStore) Begin(userID, chatID, projectID int64, projectName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey{userID, chatID}] = UploadSession{
		ProjectID:   projectID,
		ProjectName: projectName,
		ExpiresAt:   s.now().Add(s.ttl),
	}
}

// Resolve returns and removes the pending session for a user in a
// conversation. Expired sessions are purged and reported as absent.
func (s *SessionStore) Resolve(userID, chatID int64) (UploadSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{userID, chatID}
	session, ok := s.sessions[key]
	if !ok {
		return UploadSession{}, false
	}
	delete(s.sessions, key)
	if s.now().After(session.ExpiresAt) {
		return UploadSession{}, false
	}
	return session, true
}

// Cancel removes any pending session for a user in a conversation.
func (s *SessionStore) Cancel(userID, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey{userID, chatID})
}
