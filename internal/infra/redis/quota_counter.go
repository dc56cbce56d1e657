package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.QuotaCounter = (*QuotaCounter)(nil)

// QuotaCounter counts guest uses under guest:usage:<id>. The key expires
// one window after the first use.
type QuotaCounter struct {
	client *redClient
	max    int
	window time.Duration
}

func NewQuotaCounter(client *redClient, max int, window time.Duration) *QuotaCounter {
	if max <= 0 {
		max = 3
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &QuotaCounter{client: client, max: max, window: window}
}

func GuestUsageKey(identity string) string {
	return fmt.Sprintf("guest:usage:%s", identity)
}

func (q *QuotaCounter) Check(ctx context.Context, identity string) (model.QuotaStatus, error) {
	used, err := q.current(ctx, identity)
	if err != nil {
		return model.QuotaStatus{}, err
	}
	return model.NewQuotaStatus(used, q.max), nil
}

// Use reads, compares, then increments. Two concurrent uses can both pass
// the comparison.
func (q *QuotaCounter) Use(ctx context.Context, identity string) (model.QuotaStatus, error) {
	used, err := q.current(ctx, identity)
	if err != nil {
		return model.QuotaStatus{}, err
	}
	if used >= q.max {
		return model.QuotaStatus{CanUse: false, Used: used, Remaining: 0, Max: q.max}, nil
	}

	key := GuestUsageKey(identity)
	count, err := q.client.incr(ctx, key)
	if err != nil {
		return model.QuotaStatus{}, err
	}
	if count == 1 {
		if err := q.client.expire(ctx, key, q.window); err != nil {
			return model.QuotaStatus{}, err
		}
	}
	remaining := q.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return model.QuotaStatus{CanUse: true, Used: int(count), Remaining: remaining, Max: q.max}, nil
}

func (q *QuotaCounter) current(ctx context.Context, identity string) (int, error) {
	v, found, err := q.client.lookup(ctx, GuestUsageKey(identity))
	if err != nil || !found {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("guest usage %q: %w", identity, err)
	}
	return n, nil
}
