package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/gofiber/fiber/v3"
)

// WebhookHandlerInterface defines the contract for webhook handlers
type WebhookHandlerInterface interface {
	IngestEvents(c fiber.Ctx) error
}

// WebhookHandler handles provider webhook deliveries
type WebhookHandler struct {
	ingestFlow    businessflow.EventIngestFlow
	webhookConfig *config.WebhookConfig
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(ingestFlow businessflow.EventIngestFlow, webhookConfig *config.WebhookConfig) *WebhookHandler {
	return &WebhookHandler{
		ingestFlow:    ingestFlow,
		webhookConfig: webhookConfig,
	}
}

func (h *WebhookHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *WebhookHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// IngestEvents handles a webhook delivery from an email provider
// @Summary Ingest Webhook Events
// @Description Ingest a batch of delivery events posted by an email provider
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider name (sendgrid or resend)"
// @Success 200 {object} dto.APIResponse{data=dto.IngestWebhookBatchResponse} "Batch processed"
// @Failure 400 {object} dto.APIResponse "Unknown provider or malformed payload"
// @Failure 401 {object} dto.APIResponse "Invalid webhook secret"
// @Failure 500 {object} dto.APIResponse "Batch commit failed; provider should retry"
// @Router /api/v1/webhooks/{provider}/events [post]
func (h *WebhookHandler) IngestEvents(c fiber.Ctx) error {
	provider := c.Params("provider")
	if !models.CampaignProvider(provider).Valid() {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown provider", "UNKNOWN_PROVIDER", nil)
	}

	if !h.verifySecret(provider, c.Get("X-Webhook-Secret")) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid webhook secret", "INVALID_WEBHOOK_SECRET", nil)
	}

	events, err := parseWebhookEvents(provider, c.Body())
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Malformed webhook payload", "MALFORMED_PAYLOAD", err.Error())
	}

	req := dto.IngestWebhookBatchRequest{
		Provider: provider,
		Events:   events,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.ingestFlow.IngestWebhookBatch(h.createRequestContext(c), &req, metadata)
	if err != nil {
		if businessflow.ErrorKindOf(err) == businessflow.KindValidation {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Webhook batch rejected", "WEBHOOK_BATCH_REJECTED", err.Error())
		}

		// A 5xx tells the provider to redeliver; replays are safe.
		log.Println("Webhook batch ingestion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Webhook batch ingestion failed", "INGESTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Webhook batch processed", result)
}

// verifySecret compares the shared secret for the given provider in constant time
func (h *WebhookHandler) verifySecret(provider, presented string) bool {
	var expected string
	switch models.CampaignProvider(provider) {
	case models.CampaignProviderSendGrid:
		expected = h.webhookConfig.SendGridSecret
	case models.CampaignProviderResend:
		expected = h.webhookConfig.ResendSecret
	}
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// createRequestContext creates a context with a bounded timeout for the batch
func (h *WebhookHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "cancel_func", cancel)
	return ctx
}

// sendGridWebhookEvent is the wire shape of one SendGrid event. SendGrid
// echoes custom args as additional top-level keys.
type sendGridWebhookEvent struct {
	Email       string `json:"email"`
	Timestamp   int64  `json:"timestamp"`
	Event       string `json:"event"`
	SGEventID   string `json:"sg_event_id"`
	SGMessageID string `json:"sg_message_id"`
	IP          string `json:"ip"`
	UserAgent   string `json:"useragent"`
	URL         string `json:"url"`
	CampaignID  string `json:"campaign_id"`
	SendID      string `json:"send_id"`
}

// resendWebhookEvent is the wire shape of one Resend event
type resendWebhookEvent struct {
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Data      struct {
		EmailID string   `json:"email_id"`
		To      []string `json:"to"`
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
		Click struct {
			Link      string `json:"link"`
			IPAddress string `json:"ipAddress"`
			UserAgent string `json:"userAgent"`
		} `json:"click"`
	} `json:"data"`
}

// parseWebhookEvents normalizes a provider-native body into the common event
// shape, keeping each raw payload for the audit trail. SendGrid posts an
// array; Resend posts one event per delivery.
func parseWebhookEvents(provider string, body []byte) ([]dto.WebhookEvent, error) {
	switch models.CampaignProvider(provider) {
	case models.CampaignProviderSendGrid:
		return parseSendGridEvents(body)
	case models.CampaignProviderResend:
		return parseResendEvents(body)
	default:
		return nil, businessflow.ErrUnsupportedProvider
	}
}

func parseSendGridEvents(body []byte) ([]dto.WebhookEvent, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, err
	}

	events := make([]dto.WebhookEvent, 0, len(raws))
	for _, raw := range raws {
		var e sendGridWebhookEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}

		event := dto.WebhookEvent{
			Event:             e.Event,
			Timestamp:         e.Timestamp,
			Email:             e.Email,
			ProviderMessageID: e.SGMessageID,
			ProviderEventID:   e.SGEventID,
			IP:                e.IP,
			UserAgent:         e.UserAgent,
			URL:               e.URL,
			Raw:               raw,
		}
		if e.CampaignID != "" || e.SendID != "" {
			event.CustomArgs = map[string]string{
				"campaign_id": e.CampaignID,
				"send_id":     e.SendID,
			}
		}
		events = append(events, event)
	}

	return events, nil
}

func parseResendEvents(body []byte) ([]dto.WebhookEvent, error) {
	var e resendWebhookEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}

	event := dto.WebhookEvent{
		Event:             e.Type,
		ProviderMessageID: e.Data.EmailID,
		IP:                e.Data.Click.IPAddress,
		UserAgent:         e.Data.Click.UserAgent,
		URL:               e.Data.Click.Link,
		Raw:               body,
	}
	if len(e.Data.To) > 0 {
		event.Email = e.Data.To[0]
	}
	if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
		event.Timestamp = t.Unix()
	}
	for _, header := range e.Data.Headers {
		if header.Name == "X-Entity-send_id" {
			if event.CustomArgs == nil {
				event.CustomArgs = make(map[string]string)
			}
			event.CustomArgs["send_id"] = header.Value
		}
		if header.Name == "X-Entity-campaign_id" {
			if event.CustomArgs == nil {
				event.CustomArgs = make(map[string]string)
			}
			event.CustomArgs["campaign_id"] = header.Value
		}
	}

	return []dto.WebhookEvent{event}, nil
}
