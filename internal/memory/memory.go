// Package memory keeps bounded, session-scoped conversation history.
// State is in-memory only: sessions vanish on restart and are never
// shared across session ids.
package memory

import (
	"sync"
	"time"
)

// Turn is one conversation exchange entry.
type Turn struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"timestamp"`
}

type session struct {
	mu        sync.Mutex
	turns     []Turn
	createdAt time.Time
	updatedAt time.Time
	language  string
}

// Store holds per-session turn histories with FIFO eviction at a fixed
// capacity. The outer lock only guards the session map; each session
// serializes its own mutations so appends and evictions cannot race while
// independent sessions proceed in parallel.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	capacity int
}

// DefaultCapacity keeps enough turns for a few exchanges.
const DefaultCapacity = 10

// NewStore creates a store evicting oldest-first beyond capacity turns.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		sessions: make(map[string]*session),
		capacity: capacity,
	}
}

func (s *Store) get(sessionID string, create bool) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil || !create {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess = s.sessions[sessionID]; sess == nil {
		now := time.Now()
		sess = &session{createdAt: now, updatedAt: now}
		s.sessions[sessionID] = sess
	}
	return sess
}

// Append adds a turn to the session, creating the session on first use and
// evicting the oldest turn once capacity is exceeded.
func (s *Store) Append(sessionID string, turn Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	sess := s.get(sessionID, true)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.capacity {
		over := len(sess.turns) - s.capacity
		sess.turns = append([]Turn(nil), sess.turns[over:]...)
	}
	sess.updatedAt = time.Now()
}

// Context returns a copy of the session's turns in order, newest last.
// Unknown sessions yield nil; reading never creates a session.
func (s *Store) Context(sessionID string) []Turn {
	sess := s.get(sessionID, false)
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// SetLanguage records the session's first detected language preference.
func (s *Store) SetLanguage(sessionID, lang string) {
	sess := s.get(sessionID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.language == "" {
		sess.language = lang
	}
}

// History is a read-only session summary.
type History struct {
	SessionID   string    `json:"session_id"`
	Turns       []Turn    `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	Language    string    `json:"language_preference,omitempty"`
}

// History returns the session summary, or false for an unknown session.
func (s *Store) History(sessionID string) (History, bool) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return History{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	turns := make([]Turn, len(sess.turns))
	copy(turns, sess.turns)
	return History{
		SessionID:   sessionID,
		Turns:       turns,
		CreatedAt:   sess.createdAt,
		LastUpdated: sess.updatedAt,
		Language:    sess.language,
	}, true
}

// Clear drops a session entirely. It reports whether the session existed.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}

// Sessions lists the active session ids.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}
