// File: internal/infra/adapters/callback/webhook.go
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
)

var _ adapter.CallbackDispatcher = (*WebhookDispatcher)(nil)

const DefaultTimeout = 30 * time.Second

// Payload is the JSON body posted to a job's callback URL.
type Payload struct {
	Status      model.JobStatus `json:"status"`
	PDFID       int64           `json:"pdf_id"`
	Summary     string          `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
	LLMProvider model.Provider  `json:"llm_provider"`
}

func NewPayload(res model.JobResult) Payload {
	p := Payload{Status: res.Status, PDFID: res.PDFID, LLMProvider: res.Provider}
	if p.LLMProvider == "" {
		p.LLMProvider = model.ProviderCloud
	}
	if res.Status == model.JobStatusCompleted {
		p.Summary = res.Output
	} else {
		p.Error = res.Error
	}
	return p
}

// WebhookDispatcher posts job results. It makes exactly one attempt per call.
type WebhookDispatcher struct {
	client *http.Client
	log    *zerolog.Logger
}

func NewWebhookDispatcher(timeout time.Duration, log *zerolog.Logger) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebhookDispatcher{
		client: &http.Client{Timeout: timeout},
		log:    logging.Component(log, "callback"),
	}
}

// Deliver returns an error for transport failures and non-2xx responses.
// The caller decides what to do with it; nothing here retries.
func (d *WebhookDispatcher) Deliver(ctx context.Context, callbackURL string, res model.JobResult) (err error) {
	start := time.Now()
	result := "delivered"
	defer func() {
		metrics.ObserveCallback(string(res.Status), result, time.Since(start))
	}()

	u, perr := url.Parse(callbackURL)
	if perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = "error"
		return fmt.Errorf("%w: callback url %q", domain.ErrInvalidArgument, callbackURL)
	}

	b, err := json.Marshal(NewPayload(res))
	if err != nil {
		result = "error"
		return fmt.Errorf("marshal callback: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(b))
	if err != nil {
		result = "error"
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		result = "error"
		return fmt.Errorf("post callback: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result = "rejected"
		return fmt.Errorf("callback rejected: status %d", resp.StatusCode)
	}
	logging.With(ctx, d.log).Debug().
		Int64("pdf_id", res.PDFID).
		Str("status", string(res.Status)).
		Int("http_status", resp.StatusCode).
		Msg("callback delivered")
	return nil
}
