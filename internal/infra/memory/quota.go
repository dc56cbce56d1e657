package memory

import (
	"context"
	"sync"
	"time"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.QuotaCounter = (*QuotaCounter)(nil)

// QuotaCounter is the in-process guest quota. Entries reset once their
// window has elapsed.
type QuotaCounter struct {
	mu      sync.Mutex
	entries map[string]*model.GuestQuota
	max     int
	window  time.Duration
	now     func() time.Time
}

func NewQuotaCounter(max int, window time.Duration, now func() time.Time) *QuotaCounter {
	if max <= 0 {
		max = 3
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &QuotaCounter{entries: make(map[string]*model.GuestQuota), max: max, window: window, now: now}
}

func (q *QuotaCounter) Check(_ context.Context, identity string) (model.QuotaStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return model.NewQuotaStatus(q.countLocked(identity), q.max), nil
}

func (q *QuotaCounter) Use(_ context.Context, identity string) (model.QuotaStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	used := q.countLocked(identity)
	if used >= q.max {
		return model.QuotaStatus{CanUse: false, Used: used, Remaining: 0, Max: q.max}, nil
	}
	e, ok := q.entries[identity]
	if !ok {
		e = &model.GuestQuota{Identity: identity, WindowExpiry: q.now().Add(q.window)}
		q.entries[identity] = e
	}
	e.Count++
	return model.QuotaStatus{CanUse: true, Used: e.Count, Remaining: q.max - e.Count, Max: q.max}, nil
}

func (q *QuotaCounter) countLocked(identity string) int {
	e, ok := q.entries[identity]
	if !ok {
		return 0
	}
	if !q.now().Before(e.WindowExpiry) {
		delete(q.entries, identity)
		return 0
	}
	return e.Count
}
