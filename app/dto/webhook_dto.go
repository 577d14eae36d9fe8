package dto

import (
	"encoding/json"
)

// WebhookEvent is one provider-native webhook payload, pre-parsed into the
// fields every supported provider surfaces plus the raw body for audit.
// Provider-specific field names are normalized by the ingest flow.
type WebhookEvent struct {
	Event             string            `json:"event"`
	Timestamp         int64             `json:"timestamp,omitempty"`
	Email             string            `json:"email,omitempty"`
	ProviderMessageID string            `json:"sg_message_id,omitempty"`
	ProviderEventID   string            `json:"sg_event_id,omitempty"`
	CustomArgs        map[string]string `json:"custom_args,omitempty"`
	IP                string            `json:"ip,omitempty"`
	UserAgent         string            `json:"useragent,omitempty"`
	URL               string            `json:"url,omitempty"`

	// Raw carries the original payload untouched for the event audit row
	Raw json.RawMessage `json:"-"`
}

// IngestWebhookBatchRequest represents one webhook delivery from a provider
type IngestWebhookBatchRequest struct {
	Provider string         `json:"-"`
	Events   []WebhookEvent `json:"-"`
}

// IngestWebhookBatchResponse reports how the batch was processed
type IngestWebhookBatchResponse struct {
	Provider string `json:"provider"`
	Received int    `json:"received"`
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
}
