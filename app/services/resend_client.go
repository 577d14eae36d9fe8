package services

import (
	"context"

	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/resend/resend-go/v2"
)

// ResendProvider implements EmailProvider over the Resend SDK
type ResendProvider struct {
	config *config.ResendConfig
	client *resend.Client
}

// NewResendProvider creates a new Resend provider instance
func NewResendProvider(cfg *config.ResendConfig) EmailProvider {
	return &ResendProvider{
		config: cfg,
		client: resend.NewClient(cfg.APIKey),
	}
}

// Name returns the provider name
func (r *ResendProvider) Name() string {
	return models.CampaignProviderResend.String()
}

// Send delivers one message through the Resend API. Resend has no custom-args
// echo, so campaign and send identifiers travel as X- headers, which Resend
// includes in webhook payloads.
func (r *ResendProvider) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if r.config.APIKey == "" {
		return "", NewProviderConfigError(r.Name(), "API key is not configured")
	}

	from := msg.FromEmail
	if msg.FromName != "" {
		from = msg.FromName + " <" + msg.FromEmail + ">"
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.ToEmail},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}
	if len(msg.CustomArgs) > 0 {
		params.Headers = make(map[string]string, len(msg.CustomArgs))
		for k, v := range msg.CustomArgs {
			params.Headers["X-Entity-"+k] = v
		}
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", NewProviderTransportError(r.Name(), "send failed", err)
	}

	return sent.Id, nil
}
