package callback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
)

func TestDeliver_CompletedPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(time.Second, nil)
	job := &model.Job{ID: "j1", PDFID: 42, Provider: model.ProviderLocal}
	require.NoError(t, d.Deliver(context.Background(), srv.URL, model.CompletedResult(job, "- point")))

	assert.Equal(t, "completed", got["status"])
	assert.EqualValues(t, 42, got["pdf_id"])
	assert.Equal(t, "- point", got["summary"])
	assert.Equal(t, "local", got["llm_provider"])
	assert.NotContains(t, got, "error")
}

func TestDeliver_FailedPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(time.Second, nil)
	job := &model.Job{ID: "j2", PDFID: 7}
	require.NoError(t, d.Deliver(context.Background(), srv.URL, model.FailedResult(job, errors.New("boom"))))

	assert.Equal(t, "failed", got["status"])
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, "cloud", got["llm_provider"])
	assert.NotContains(t, got, "summary")
}

func TestDeliver_NonSuccessIsErrorAndNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(time.Second, nil)
	err := d.Deliver(context.Background(), srv.URL, model.CompletedResult(&model.Job{PDFID: 1}, "x"))
	assert.ErrorContains(t, err, "status 500")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeliver_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	d := NewWebhookDispatcher(50*time.Millisecond, nil)
	err := d.Deliver(context.Background(), srv.URL, model.CompletedResult(&model.Job{PDFID: 1}, "x"))
	assert.Error(t, err)
}

func TestDeliver_RejectsBadURL(t *testing.T) {
	d := NewWebhookDispatcher(time.Second, nil)
	err := d.Deliver(context.Background(), "ftp://nope", model.CompletedResult(&model.Job{PDFID: 1}, "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
