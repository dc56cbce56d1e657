package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

var (
	errRate  = fmt.Errorf("%w: 429 quota", domain.ErrRateLimited)
	errOther = fmt.Errorf("%w: 500 internal", domain.ErrProviderFailure)
)

type reply struct {
	out string
	err error
}

func ok(s string) reply  { return reply{out: s} }
func fail(e error) reply { return reply{err: e} }

// scriptedGen replays a per-tier script; the last entry repeats.
type scriptedGen struct {
	mu      sync.Mutex
	name    string
	script  map[model.Tier][]reply
	calls   map[model.Tier]int
	prompts []string
}

func newScriptedGen(name string, script map[model.Tier][]reply) *scriptedGen {
	return &scriptedGen{name: name, script: script, calls: map[model.Tier]int{}}
}

func (g *scriptedGen) Name() string { return g.name }

func (g *scriptedGen) Generate(_ context.Context, prompt string, tier model.Tier) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	i := g.calls[tier]
	g.calls[tier]++
	steps := g.script[tier]
	if len(steps) == 0 {
		return "", errors.New("unscripted tier " + tier.String())
	}
	if i >= len(steps) {
		i = len(steps) - 1
	}
	return steps[i].out, steps[i].err
}

func (g *scriptedGen) Calls(t model.Tier) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[t]
}

func (g *scriptedGen) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type fakeResolver map[model.Provider]adapter.TextGenerator

func (r fakeResolver) Resolve(p model.Provider) (adapter.TextGenerator, error) {
	if p == "" {
		p = model.ProviderCloud
	}
	if g, ok := r[p]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("provider %q not configured", p)
}

// recordingTimer satisfies backoff.Timer. It records every requested sleep
// and fires immediately unless onStart says otherwise.
type recordingTimer struct {
	mu      sync.Mutex
	slept   []time.Duration
	c       chan time.Time
	onStart func()
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (t *recordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.slept = append(t.slept, d)
	hook := t.onStart
	t.mu.Unlock()
	if hook != nil {
		hook()
		return
	}
	t.c <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time { return t.c }

func (t *recordingTimer) Slept() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.slept...)
}

func noJitter(time.Duration) time.Duration { return 0 }

// instantRetry never sleeps for real.
func instantRetry() *RetryExecutor {
	return NewRetryExecutor(30*time.Second, 0, nil,
		WithTimer(func() backoff.Timer { return newRecordingTimer() }))
}

func newTestSummarizer(gens fakeResolver) *summarizer {
	return NewSummarizer(gens, instantRetry(), SummarizerConfig{CapableAttempts: 3, FastAttempts: 5, MaxInputChars: 50000}, nil)
}

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}
