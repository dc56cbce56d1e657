package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("redis:\n  url: redis://localhost:6379/0\n"), true)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 3, cfg.AI.CapableAttempts)
	assert.Equal(t, 5, cfg.AI.FastAttempts)
	assert.Equal(t, 30*time.Second, cfg.AI.BackoffCap)
	assert.Equal(t, 500*time.Millisecond, cfg.AI.BackoffJitter)
	assert.Equal(t, 50000, cfg.AI.MaxInputChars)
	assert.Equal(t, 30*time.Second, cfg.Callback.Timeout)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Guest.MaxUsage)
	assert.Equal(t, 24*time.Hour, cfg.Guest.Window)
	assert.Equal(t, 5, cfg.HTTP.MaxUploadGuestMB)
	assert.Equal(t, 7, cfg.HTTP.MaxUploadUserMB)
	assert.True(t, cfg.Runtime.Dev)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("PDFAI_TEST_GEMINI_KEY", "k-123")
	cfg, err := Parse([]byte(`
ai:
  gemini_key: ${PDFAI_TEST_GEMINI_KEY}
queue:
  backend: memory
guest:
  backend: memory
`), false)
	require.NoError(t, err)
	assert.Equal(t, "k-123", cfg.AI.GeminiKey)
	assert.False(t, cfg.NeedsRedis())
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"unknown queue backend": "queue:\n  backend: kafka\n",
		"redis url missing":     "queue:\n  backend: redis\n",
		"postgres url missing":  "queue:\n  backend: postgres\nguest:\n  backend: memory\n",
		"unknown session store": "session:\n  backend: disk\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), true)
			assert.Error(t, err)
		})
	}
}

func TestParse_GeminiKeyRequiredOutsideDev(t *testing.T) {
	_, err := Parse([]byte("queue:\n  backend: memory\nguest:\n  backend: memory\n"), false)
	assert.ErrorContains(t, err, "gemini_key")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue:\n  backend: memory\n  workers: 2\nguest:\n  backend: memory\n"), 0o600))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Queue.Workers)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}
