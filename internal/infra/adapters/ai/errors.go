package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"

	"pdf-ai-pipeline/internal/domain"
)

// classify wraps a provider error with domain.ErrRateLimited or
// domain.ErrProviderFailure.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrProviderFailure) {
		return err
	}
	if isRateLimit(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrRateLimited, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProviderFailure, provider, err)
}

func isRateLimit(err error) bool {
	var gv genai.APIError
	if errors.As(err, &gv) {
		return gv.Code == http.StatusTooManyRequests || gv.Status == "RESOURCE_EXHAUSTED"
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && gp != nil {
		return gp.Code == http.StatusTooManyRequests || gp.Status == "RESOURCE_EXHAUSTED"
	}
	var oe *openai.Error
	if errors.As(err, &oe) && oe != nil {
		return oe.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || statusText429.MatchString(msg)
}

// statusText429 matches a 429 reported as a status ("Error 429", "status code: 429"),
// not a number that happens to contain the digits.
var statusText429 = regexp.MustCompile(`(?i)\b(error|status|code)[ :=]*429\b`)
