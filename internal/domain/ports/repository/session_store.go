package repository

import (
	"context"

	"pdf-ai-pipeline/internal/domain/model"
)

// SessionStore keeps TTL-bound chat sessions. Get and Append return
// domain.ErrSessionNotFound for missing or expired sessions.
type SessionStore interface {
	// Create sweeps expired sessions, then stores a new one.
	Create(ctx context.Context, text, filename string, pref model.Preference) (*model.ChatSession, error)
	Get(ctx context.Context, id string) (*model.ChatSession, error)
	Append(ctx context.Context, id string, turns ...model.Turn) error
	Sweep(ctx context.Context) (int, error)
}
