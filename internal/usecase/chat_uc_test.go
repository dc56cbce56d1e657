package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/infra/memory"
)

func newChatFixture(gen *scriptedGen) (*chatUC, *memory.SessionStore, *fakeExtractor) {
	store := memory.NewSessionStore(time.Hour, nil)
	ext := &fakeExtractor{text: "The quarterly report says revenue grew."}
	uc := NewChatUseCase(store, ext, newTestSummarizer(fakeResolver{model.ProviderCloud: gen}), nil, true)
	return uc, store, ext
}

func TestChatUC_StartAndSend(t *testing.T) {
	ctx := context.Background()
	gen := newScriptedGen("cloud", map[model.Tier][]reply{model.TierCapable: {ok("Revenue grew.")}})
	uc, store, _ := newChatFixture(gen)

	s, err := uc.StartChat(ctx, []byte("%PDF-1.7"), "q3.pdf", model.Preference{Provider: model.ProviderCloud})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, model.ModePro, s.Preference.Mode, "chat defaults to the capable tier")

	reply, err := uc.SendMessage(ctx, s.ID, "  what grew?  ")
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew.", reply)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, model.Turn{Role: model.RoleUser, Content: "what grew?", At: got.History[0].At}, got.History[0])
	assert.Equal(t, "Revenue grew.", got.History[1].Content)
}

func TestChatUC_FailedAnswerLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	gen := newScriptedGen("cloud", map[model.Tier][]reply{model.TierCapable: {fail(errOther)}})
	uc, store, _ := newChatFixture(gen)

	s, err := uc.StartChat(ctx, []byte("%PDF"), "a.pdf", proCloud)
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, s.ID, "hello?")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.History)
}

func TestChatUC_UnknownSession(t *testing.T) {
	uc, _, _ := newChatFixture(newScriptedGen("cloud", nil))
	_, err := uc.SendMessage(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChatUC_EmptyMessage(t *testing.T) {
	uc, _, _ := newChatFixture(newScriptedGen("cloud", nil))
	_, err := uc.SendMessage(context.Background(), "any", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatUC_StartRejectsEmptyUploadAndExtractionFailure(t *testing.T) {
	ctx := context.Background()
	uc, _, ext := newChatFixture(newScriptedGen("cloud", nil))

	_, err := uc.StartChat(ctx, nil, "a.pdf", proCloud)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, ext.calls)

	ext.err = errors.New("corrupt xref")
	_, err = uc.StartChat(ctx, []byte("%PDF"), "a.pdf", proCloud)
	assert.ErrorContains(t, err, "corrupt xref")
}
