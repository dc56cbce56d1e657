package worker

import (
	"context"
	"errors"
	"sync"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/infra/memory"
)

type fakeSource struct {
	data []byte
	err  error
}

func (s *fakeSource) Open(context.Context, string) ([]byte, error) { return s.data, s.err }

type fakeExtractor struct {
	text  string
	err   error
	panic any
}

func (e *fakeExtractor) Extract(context.Context, []byte) (string, error) {
	if e.panic != nil {
		panic(e.panic)
	}
	return e.text, e.err
}

type fakeSummarizer struct {
	out   string
	err   error
	mu    sync.Mutex
	calls int
	prefs []model.Preference
}

func (s *fakeSummarizer) record(pref model.Preference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prefs = append(s.prefs, pref)
}

func (s *fakeSummarizer) Summarize(_ context.Context, _, _ string, pref model.Preference) (string, error) {
	s.record(pref)
	return s.out, s.err
}

func (s *fakeSummarizer) SummarizeBackground(_ context.Context, _, _ string, pref model.Preference) (string, error) {
	s.record(pref)
	return s.out, s.err
}

func (s *fakeSummarizer) SummarizeOnce(_ context.Context, _, _ string, pref model.Preference) (string, error) {
	s.record(pref)
	return s.out, s.err
}

func (s *fakeSummarizer) Chat(context.Context, *model.ChatSession, string) (string, error) {
	return "", errors.New("not used")
}

type recordingDispatcher struct {
	mu      sync.Mutex
	results []model.JobResult
	err     error
}

func (d *recordingDispatcher) Deliver(_ context.Context, _ string, res model.JobResult) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, res)
	return d.err
}

func (d *recordingDispatcher) Results() []model.JobResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.JobResult(nil), d.results...)
}

// ackCountingQueue is a memory queue that records acked job ids.
type ackCountingQueue struct {
	*memory.JobQueue
	mu   sync.Mutex
	acks []string
}

func newAckCountingQueue() *ackCountingQueue {
	return &ackCountingQueue{JobQueue: memory.NewJobQueue(16)}
}

func (q *ackCountingQueue) Ack(ctx context.Context, d *model.Delivery) error {
	q.mu.Lock()
	q.acks = append(q.acks, d.Job.ID)
	q.mu.Unlock()
	return q.JobQueue.Ack(ctx, d)
}

func (q *ackCountingQueue) Acks() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acks...)
}
