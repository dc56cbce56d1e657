package model

import (
	"time"
)

// HistoryWindow is the number of most recent turns sent to the model.
const HistoryWindow = 10

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents one message within a chat session.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ChatSession is an ephemeral conversation over a single document.
// DocumentText is set once at creation and never modified.
type ChatSession struct {
	ID            string     `json:"session_id"`
	DocumentText  string     `json:"document_text"`
	Filename      string     `json:"filename"`
	History       []Turn     `json:"history"`
	Preference    Preference `json:"provider_preference"`
	CreatedAt     time.Time  `json:"created_at"`
	LastTouchedAt time.Time  `json:"last_touched_at"`
}

func NewChatSession(id, text, filename string, pref Preference, now time.Time) *ChatSession {
	return &ChatSession{
		ID:            id,
		DocumentText:  text,
		Filename:      filename,
		History:       make([]Turn, 0, 8),
		Preference:    pref,
		CreatedAt:     now,
		LastTouchedAt: now,
	}
}

func (s *ChatSession) AddTurn(role Role, content string, now time.Time) {
	s.History = append(s.History, Turn{Role: role, Content: content, At: now})
	s.LastTouchedAt = now
}

func (s *ChatSession) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Expired reports whether the session outlived ttl, measured from creation.
func (s *ChatSession) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) > ttl
}
