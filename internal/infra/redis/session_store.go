package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

const sessionPrefix = "chat_session:"

// SessionStore keeps each session as JSON under chat_session:<id>. The Redis
// expiry is set to the session's remaining lifetime, so Redis itself purges
// expired sessions; Sweep only catches keys that lost their expiry.
type SessionStore struct {
	client *redClient
	ttl    time.Duration
	now    func() time.Time
	sealer Sealer
}

// Sealer encrypts session payloads at rest.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type SessionOption func(*SessionStore)

// WithSealer stores sessions encrypted; documents never reach Redis in clear text.
func WithSealer(s Sealer) SessionOption {
	return func(st *SessionStore) { st.sealer = s }
}

func NewSessionStore(client *redClient, ttl time.Duration, opts ...SessionOption) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	st := &SessionStore{client: client, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(st)
	}
	return st
}

func (s *SessionStore) encode(sess *model.ChatSession) (string, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if s.sealer == nil {
		return string(data), nil
	}
	return s.sealer.Encrypt(string(data))
}

func (s *SessionStore) decode(raw string) (*model.ChatSession, error) {
	if s.sealer != nil {
		pt, err := s.sealer.Decrypt(raw)
		if err != nil {
			return nil, fmt.Errorf("decrypt session: %w", err)
		}
		raw = pt
	}
	var sess model.ChatSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func sessionKey(id string) string { return sessionPrefix + id }

func (s *SessionStore) Create(ctx context.Context, text, filename string, pref model.Preference) (*model.ChatSession, error) {
	sess := model.NewChatSession(uuid.NewString(), text, filename, pref, s.now())
	data, err := s.encode(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.store(ctx, sessionKey(sess.ID), data, s.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*model.ChatSession, error) {
	data, found, err := s.client.lookup(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := s.decode(data)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now(), s.ttl) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Append is read-modify-write without a lock; concurrent appends on one
// session may lose a turn.
func (s *SessionStore) Append(ctx context.Context, id string, turns ...model.Turn) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()
	for _, t := range turns {
		at := t.At
		if at.IsZero() {
			at = now
		}
		sess.AddTurn(t.Role, t.Content, at)
	}
	data, err := s.encode(sess)
	if err != nil {
		return err
	}
	return s.client.store(ctx, sessionKey(id), data, redis.KeepTTL)
}

func (s *SessionStore) Sweep(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.cli.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, found, err := s.client.lookup(ctx, key)
		if err != nil {
			return n, err
		}
		if !found {
			continue
		}
		sess, err := s.decode(data)
		if err != nil || sess.Expired(s.now(), s.ttl) {
			if err := s.client.del(ctx, key); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, iter.Err()
}
