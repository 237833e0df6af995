package answer

import (
	"sync"
	"time"

	"github.com/lectern-dev/lectern/pkg/model"
)

const defaultMaxHistory = 2

// SessionStore keeps per-session conversation history in memory for the
// process lifetime. Histories are capped at maxHistory exchanges, oldest
// evicted first. Safe for concurrent use.
type SessionStore struct {
	mu         sync.Mutex
	maxHistory int
	sessions   map[model.SessionID]*model.Session
}

func NewSessionStore(maxHistory int) *SessionStore {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &SessionStore{
		maxHistory: maxHistory,
		sessions:   make(map[model.SessionID]*model.Session),
	}
}

// Upsert returns the session for id, creating it when unseen. The second
// return value reports whether this call created it.
func (s *SessionStore) Upsert(id model.SessionID) (*model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, false
	}

	sess := &model.Session{ID: id, CreatedAt: time.Now()}
	s.sessions[id] = sess
	return sess, true
}

// History returns a copy of the session's exchanges, oldest first. Unknown
// sessions yield an empty history.
func (s *SessionStore) History(id model.SessionID) []model.Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	history := make([]model.Exchange, len(sess.Exchanges))
	copy(history, sess.Exchanges)
	return history
}

// AddExchange appends a completed exchange, creating the session if needed
// and truncating from the front to the configured cap.
func (s *SessionStore) AddExchange(id model.SessionID, query, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &model.Session{ID: id, CreatedAt: time.Now()}
		s.sessions[id] = sess
	}

	sess.Exchanges = append(sess.Exchanges, model.Exchange{
		Query:    query,
		Response: response,
		At:       time.Now(),
	})
	if n := len(sess.Exchanges); n > s.maxHistory {
		sess.Exchanges = sess.Exchanges[n-s.maxHistory:]
	}
}
