package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
)

var _ GuestUseCase = (*guestUC)(nil)

type GuestUseCase interface {
	NewGuest(ctx context.Context) (string, model.QuotaStatus, error)
	Check(ctx context.Context, guestID string) (model.QuotaStatus, error)
	// Use consumes one unit. A denied use returns the status together with
	// domain.ErrQuotaExceeded.
	Use(ctx context.Context, guestID string) (model.QuotaStatus, error)
}

type guestUC struct {
	quota repository.QuotaCounter
	log   *zerolog.Logger
}

func NewGuestUseCase(quota repository.QuotaCounter, logger *zerolog.Logger) *guestUC {
	return &guestUC{quota: quota, log: logging.Component(logger, "guest")}
}

func (g *guestUC) NewGuest(ctx context.Context) (string, model.QuotaStatus, error) {
	id := uuid.NewString()
	st, err := g.quota.Check(ctx, id)
	if err != nil {
		return "", model.QuotaStatus{}, err
	}
	return id, st, nil
}

func (g *guestUC) Check(ctx context.Context, guestID string) (model.QuotaStatus, error) {
	if err := validGuestID(guestID); err != nil {
		return model.QuotaStatus{}, err
	}
	st, err := g.quota.Check(ctx, guestID)
	if err != nil {
		metrics.IncQuotaDecision("check", "error")
		return model.QuotaStatus{}, err
	}
	metrics.IncQuotaDecision("check", allowed(st.CanUse))
	return st, nil
}

func (g *guestUC) Use(ctx context.Context, guestID string) (model.QuotaStatus, error) {
	if err := validGuestID(guestID); err != nil {
		return model.QuotaStatus{}, err
	}
	st, err := g.quota.Use(ctx, guestID)
	if err != nil {
		metrics.IncQuotaDecision("use", "error")
		return model.QuotaStatus{}, err
	}
	metrics.IncQuotaDecision("use", allowed(st.CanUse))
	if !st.CanUse {
		logging.With(logging.WithGuestID(ctx, guestID), g.log).Info().
			Int("used", st.Used).Int("max", st.Max).Msg("guest quota exhausted")
		return st, domain.ErrQuotaExceeded
	}
	return st, nil
}

func validGuestID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: missing guest id", domain.ErrInvalidInput)
	}
	return nil
}

func allowed(ok bool) string {
	if ok {
		return "allowed"
	}
	return "denied"
}
