package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/splitsub/splitsub/internal/config"
)

// Client wraps the transactional email provider. When disabled (no API
// key, or turned off in config) sends become no-ops so local development
// never needs provider credentials.
type Client struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

func NewClient(cfg *config.Configuration) *Client {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		return &Client{enabled: false}
	}

	return &Client{
		client:      resend.NewClient(cfg.Email.APIKey),
		enabled:     true,
		fromAddress: cfg.Email.FromAddress,
		replyTo:     cfg.Email.ReplyTo,
	}
}

func (c *Client) IsEnabled() bool {
	return c.enabled
}

// Send sends a plain text email and returns the provider message id
func (c *Client) Send(ctx context.Context, to, subject, text string) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("email client is disabled")
	}

	params := &resend.SendEmailRequest{
		From:    c.fromAddress,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}
