package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/defensuk/defens/internal/store"
	"github.com/defensuk/defens/internal/wizard"
)

// SessionStore maps session tokens to live wizard sessions. Sessions mutate
// under their own lock; this store only guards the map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*wizard.Session
	analyzer wizard.Analyzer
}

func NewSessionStore(analyzer wizard.Analyzer) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*wizard.Session),
		analyzer: analyzer,
	}
}

func generateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Create opens a fresh session and returns its token.
func (s *SessionStore) Create() (string, *wizard.Session) {
	token := generateToken()
	sess := wizard.NewSession(s.analyzer)
	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return token, sess
}

func (s *SessionStore) Get(token string) *wizard.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[token]
}

// GetOrCreate returns the session for token, materializing one when the token
// is unknown. The payment return path needs this: the redirect can outlive
// the in-memory session.
func (s *SessionStore) GetOrCreate(token string) *wizard.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		return sess
	}
	sess := wizard.NewSession(s.analyzer)
	s.sessions[token] = sess
	return sess
}

// Snapshot flattens every live session for restart persistence.
func (s *SessionStore) Snapshot() store.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := store.Snapshot{Sessions: make(map[string]store.SessionSnapshot, len(s.sessions))}
	for token, sess := range s.sessions {
		rec, screen, history := sess.Snapshot()
		hs := make([]string, len(history))
		for i, h := range history {
			hs[i] = string(h)
		}
		snap.Sessions[token] = store.SessionSnapshot{
			Record:  rec,
			Screen:  string(screen),
			History: hs,
		}
	}
	return snap
}

// Restore rebuilds sessions from a snapshot taken before a restart.
func (s *SessionStore) Restore(snap store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, ss := range snap.Sessions {
		history := make([]wizard.Screen, len(ss.History))
		for i, h := range ss.History {
			history[i] = wizard.Screen(h)
		}
		s.sessions[token] = wizard.RestoreSession(s.analyzer, ss.Record, wizard.Screen(ss.Screen), history)
	}
}
