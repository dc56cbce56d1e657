package ai_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	ai "pdf-ai-pipeline/internal/infra/adapters/ai"
)

type stubGen struct {
	name     string
	inFlight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
}

func (s *stubGen) Name() string { return s.name }

func (s *stubGen) Generate(ctx context.Context, prompt string, tier model.Tier) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.hold)
	return fmt.Sprintf("%s:%s", s.name, tier), nil
}

func TestResolver_PicksByProvider(t *testing.T) {
	t.Parallel()
	cloud := &stubGen{name: "cloud"}
	local := &stubGen{name: "local"}
	r := ai.NewResolver(map[model.Provider]adapter.TextGenerator{
		model.ProviderCloud: cloud,
		model.ProviderLocal: local,
	})

	g, err := r.Resolve(model.ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, "local", g.Name())

	// empty provider means cloud
	g, err = r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "cloud", g.Name())

	assert.Equal(t, []model.Provider{model.ProviderCloud, model.ProviderLocal}, r.Providers())
}

func TestResolver_UnconfiguredProvider(t *testing.T) {
	t.Parallel()
	r := ai.NewResolver(map[model.Provider]adapter.TextGenerator{model.ProviderCloud: &stubGen{name: "cloud"}})
	_, err := r.Resolve(model.ProviderLocal)
	assert.ErrorContains(t, err, "not configured")
}

func TestLimitedGenerator_CapsConcurrency(t *testing.T) {
	t.Parallel()
	inner := &stubGen{name: "cloud", hold: 20 * time.Millisecond}
	g := ai.NewLimitedGenerator(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Generate(context.Background(), "p", model.TierFast)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
}

func TestLimitedGenerator_HonoursContextWhileWaiting(t *testing.T) {
	t.Parallel()
	inner := &stubGen{name: "cloud", hold: 200 * time.Millisecond}
	g := ai.NewLimitedGenerator(inner, 1)

	go func() { _, _ = g.Generate(context.Background(), "p", model.TierFast) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := g.Generate(ctx, "p", model.TierFast)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNoopGenerator_EchoesPrompt(t *testing.T) {
	t.Parallel()
	out, err := ai.NewNoopGenerator("cloud", nil).Generate(context.Background(), "hello pdf world", model.TierCapable)
	require.NoError(t, err)
	assert.Contains(t, out, "[cloud/capable] hello pdf world")
}
