package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
)

// WebhookService delivers captured leads to the funnel's webhook
type WebhookService struct {
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(timeout time.Duration, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// Send posts {name, email} form-encoded to hookURL
func (s *WebhookService) Send(ctx context.Context, hookURL string, lead *model.Lead) error {
	form := url.Values{}
	form.Set("name", lead.Name)
	form.Set("email", lead.Email)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hookURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Deliver sends the lead in the background; failures are only logged
func (s *WebhookService) Deliver(hookURL string, lead *model.Lead) {
	if hookURL == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in webhook delivery", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Send(ctx, hookURL, lead); err != nil {
			s.logger.Warn("lead webhook delivery failed",
				zap.String("funnelId", lead.FunnelID),
				zap.String("leadId", lead.ID),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("lead webhook delivered", zap.String("funnelId", lead.FunnelID), zap.String("leadId", lead.ID))
	}()
}
