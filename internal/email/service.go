package email

import (
	"context"
	"fmt"

	"github.com/splitsub/splitsub/internal/config"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/types"
)

// Sender is the notification surface the services depend on. Failures are
// logged, not returned: email is best-effort and never blocks a billing
// operation.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, username, token string)
	SendPasswordReset(ctx context.Context, to, username, token string)
	SendPriceChangeNotice(ctx context.Context, to, planName string, perUnitCents int64, frequency types.CycleFrequency)
}

type service struct {
	client  *Client
	baseURL string
	logger  *logger.Logger
}

func NewService(client *Client, cfg *config.Configuration, logger *logger.Logger) Sender {
	return &service{
		client:  client,
		baseURL: cfg.Email.BaseURL,
		logger:  logger,
	}
}

func (s *service) SendVerificationCode(ctx context.Context, to, username, token string) {
	subject := "Confirm your email"
	text := fmt.Sprintf(
		"Hi %s,\n\nConfirm this request by following the link below. The link expires shortly.\n\n%s/verify?token=%s\n\nIf you did not request this, you can ignore this email.\n",
		username, s.baseURL, token)
	s.send(ctx, to, subject, text)
}

func (s *service) SendPasswordReset(ctx context.Context, to, username, token string) {
	subject := "Reset your password"
	text := fmt.Sprintf(
		"Hi %s,\n\nReset your password by following the link below. The link expires shortly.\n\n%s/reset-password?token=%s\n\nIf you did not request this, you can ignore this email.\n",
		username, s.baseURL, token)
	s.send(ctx, to, subject, text)
}

func (s *service) SendPriceChangeNotice(ctx context.Context, to, planName string, perUnitCents int64, frequency types.CycleFrequency) {
	subject := fmt.Sprintf("Price update for %s", planName)
	text := fmt.Sprintf(
		"The membership of %s changed, so your share is now %s per %s per unit. The new amount applies from your next billing cycle.\n",
		planName, types.DecimalStringFromCents(perUnitCents), frequency.Interval())
	s.send(ctx, to, subject, text)
}

func (s *service) send(ctx context.Context, to, subject, text string) {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"subject", subject)
		return
	}

	messageID, err := s.client.Send(ctx, to, subject, text)
	if err != nil {
		s.logger.Errorw("failed to send email",
			"error", err,
			"to", to,
			"subject", subject)
		return
	}

	s.logger.Debugw("email sent",
		"message_id", messageID,
		"to", to,
		"subject", subject)
}
