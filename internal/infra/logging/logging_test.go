package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pdf-ai-pipeline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWith_AttachesContextIDs(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "json"}, false)

	ctx := WithTraceID(context.Background(), "tr-1")
	ctx = WithJobID(ctx, "01JOB")
	With(ctx, Component(base, "worker")).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tr-1", line["trace_id"])
	assert.Equal(t, "01JOB", line["job_id"])
	assert.Equal(t, "worker", line["component"])
	assert.NotContains(t, line, "session_id")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "***", Redact("short", false))
	assert.Equal(t, "Lore...um", Redact("Lorem ipsum", false))
	assert.Equal(t, "Lorem ipsum", Redact("Lorem ipsum", true))
}
