package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
)

const sendGridMailSendURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridProvider implements EmailProvider against the SendGrid v3 mail API
type SendGridProvider struct {
	config *config.SendGridConfig
	client *http.Client
}

// sendGridAddress represents an email address in SendGrid payloads
type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// sendGridPersonalization carries recipients and the custom-args echo
type sendGridPersonalization struct {
	To         []sendGridAddress `json:"to"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

// sendGridContent represents one content block
type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// sendGridTrackingSetting toggles one tracking feature
type sendGridTrackingSetting struct {
	Enable bool `json:"enable"`
}

// sendGridTrackingSettings represents the tracking configuration
type sendGridTrackingSettings struct {
	OpenTracking  *sendGridTrackingSetting `json:"open_tracking,omitempty"`
	ClickTracking *sendGridTrackingSetting `json:"click_tracking,omitempty"`
}

// sendGridRequest represents the request payload for the mail send API
type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	ReplyTo          *sendGridAddress          `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	TrackingSettings *sendGridTrackingSettings `json:"tracking_settings,omitempty"`
}

// NewSendGridProvider creates a new SendGrid provider instance
func NewSendGridProvider(cfg *config.SendGridConfig) EmailProvider {
	return &SendGridProvider{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name
func (s *SendGridProvider) Name() string {
	return models.CampaignProviderSendGrid.String()
}

// Send delivers one message through the SendGrid mail send API. The returned
// message ID comes from the X-Message-Id response header; SendGrid later
// suffixes it with routing metadata in webhook events.
func (s *SendGridProvider) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if s.config.APIKey == "" {
		return "", NewProviderConfigError(s.Name(), "API key is not configured")
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:         []sendGridAddress{{Email: msg.ToEmail, Name: msg.ToName}},
				CustomArgs: msg.CustomArgs,
			},
		},
		From:    sendGridAddress{Email: msg.FromEmail, Name: msg.FromName},
		Subject: msg.Subject,
		Content: []sendGridContent{
			{Type: "text/html", Value: msg.HTMLBody},
		},
		TrackingSettings: &sendGridTrackingSettings{
			OpenTracking:  &sendGridTrackingSetting{Enable: msg.TrackOpens},
			ClickTracking: &sendGridTrackingSetting{Enable: msg.TrackClicks},
		},
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = &sendGridAddress{Email: msg.ReplyTo}
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return "", NewProviderTransportError(s.Name(), "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", sendGridMailSendURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", NewProviderTransportError(s.Name(), "failed to create HTTP request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", NewProviderTransportError(s.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", NewProviderConfigError(s.Name(), fmt.Sprintf("authentication rejected (%d)", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", NewProviderTransportError(s.Name(), fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	return resp.Header.Get("X-Message-Id"), nil
}
