package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps chat sessions in a map. Expired sessions are invisible
// to Get and Append and are dropped on the next sweep.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[string]*model.ChatSession), ttl: ttl, now: now}
}

func (s *SessionStore) Create(_ context.Context, text, filename string, pref model.Preference) (*model.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)

	sess := model.NewChatSession(uuid.NewString(), text, filename, pref, now)
	s.sessions[sess.ID] = sess
	return clone(sess), nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*model.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return clone(sess), nil
}

func (s *SessionStore) Append(_ context.Context, id string, turns ...model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	for _, t := range turns {
		at := t.At
		if at.IsZero() {
			at = s.now()
		}
		sess.AddTurn(t.Role, t.Content, at)
	}
	return nil
}

func (s *SessionStore) Sweep(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now()), nil
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) live(id string) (*model.ChatSession, bool) {
	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now(), s.ttl) {
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) sweepLocked(now time.Time) int {
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// clone hands callers a copy so they never alias the stored history.
func clone(s *model.ChatSession) *model.ChatSession {
	c := *s
	c.History = append([]model.Turn(nil), s.History...)
	return &c
}
