package dto

import (
	"time"
)

// Recipient is one entry of the recipient list handed over by the
// campaign-management collaborator. Email is the only required field.
type Recipient struct {
	Email          string         `json:"email" validate:"required,email"`
	DisplayName    string         `json:"display_name,omitempty"`
	FirstName      *string        `json:"first_name,omitempty"`
	LastName       *string        `json:"last_name,omitempty"`
	ContactID      *uint          `json:"contact_id,omitempty"`
	OrganisationID *uint          `json:"organisation_id,omitempty"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}

// ScheduleCampaignRequest represents the request to materialize sends for a campaign
type ScheduleCampaignRequest struct {
	CampaignUUID string      `json:"-"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty"`
	Recipients   []Recipient `json:"recipients" validate:"required,min=1,dive"`
}

// ScheduleCampaignResponse represents the outcome of scheduling a campaign
type ScheduleCampaignResponse struct {
	CampaignUUID    string    `json:"campaign_uuid"`
	CampaignStatus  string    `json:"campaign_status"`
	TotalRecipients int       `json:"total_recipients"`
	SendsCreated    int       `json:"sends_created"`
	SendsQueued     int       `json:"sends_queued"`
	SendsScheduled  int       `json:"sends_scheduled"`
	ScheduledAt     time.Time `json:"scheduled_at"`
}

// DispatchSendRequest represents the request to dispatch one send now
type DispatchSendRequest struct {
	SendUUID string `json:"-"`
}

// DispatchSendResponse represents the send after a dispatch attempt
type DispatchSendResponse struct {
	SendUUID          string     `json:"send_uuid"`
	Status            string     `json:"status"`
	ProviderMessageID *string    `json:"provider_message_id,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	AlreadyDispatched bool       `json:"already_dispatched"`
}
