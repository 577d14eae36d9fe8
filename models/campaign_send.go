package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SendStatus represents the delivery state of a single campaign send
type SendStatus string

const (
	SendStatusQueued       SendStatus = "queued"
	SendStatusScheduled    SendStatus = "scheduled"
	SendStatusSending      SendStatus = "sending"
	SendStatusSent         SendStatus = "sent"
	SendStatusDelivered    SendStatus = "delivered"
	SendStatusOpened       SendStatus = "opened"
	SendStatusClicked      SendStatus = "clicked"
	SendStatusUnsubscribed SendStatus = "unsubscribed"
	SendStatusComplained   SendStatus = "complained"
	SendStatusBounced      SendStatus = "bounced"
	SendStatusFailed       SendStatus = "failed"
)

// sendStatusPriority fixes the ranking used to enforce monotonic transitions.
// A status may only ever move to an equal-or-higher-priority status.
var sendStatusPriority = map[SendStatus]int{
	SendStatusQueued:       0,
	SendStatusScheduled:    1,
	SendStatusSending:      2,
	SendStatusSent:         3,
	SendStatusDelivered:    4,
	SendStatusOpened:       5,
	SendStatusClicked:      6,
	SendStatusUnsubscribed: 7,
	SendStatusComplained:   8,
	SendStatusBounced:      9,
	SendStatusFailed:       10,
}

// String returns the string representation of the status
func (s SendStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s SendStatus) Valid() bool {
	_, ok := sendStatusPriority[s]
	return ok
}

// Priority returns the fixed integer priority of the status. Unknown statuses
// rank below everything so they never block an update.
func (s SendStatus) Priority() int {
	if p, ok := sendStatusPriority[s]; ok {
		return p
	}
	return -1
}

// Scan implements the sql.Scanner interface for SendStatus
func (s *SendStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = SendStatus(v)
	case []byte:
		*s = SendStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SendStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for SendStatus
func (s SendStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid SendStatus: %s", s)
	}
	return string(s), nil
}

// DispatchedStatuses is the "delivered-or-better" set: a send in any of these
// states must never be handed to a provider again.
var DispatchedStatuses = []SendStatus{
	SendStatusSent,
	SendStatusDelivered,
	SendStatusOpened,
	SendStatusClicked,
}

// CampaignSend is one scheduled/attempted delivery of one email to one
// recipient for one campaign step. Created by the scheduler, mutated by the
// dispatcher and the event ingestor, never deleted individually.
type CampaignSend struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_email_campaign_sends_uuid" json:"uuid"`
	CampaignID        uint       `gorm:"not null;index:idx_email_campaign_sends_campaign_id" json:"campaign_id"`
	StepID            uint       `gorm:"not null;index:idx_email_campaign_sends_step_id" json:"step_id"`
	TemplateID        *uint      `json:"template_id,omitempty"`
	RecipientEmail    string     `gorm:"size:255;not null;index:idx_email_campaign_sends_recipient_email" json:"recipient_email"`
	RecipientName     string     `gorm:"size:255" json:"recipient_name"`
	ContactID         *uint      `gorm:"index:idx_email_campaign_sends_contact_id" json:"contact_id,omitempty"`
	OrganisationID    *uint      `json:"organisation_id,omitempty"`
	Variant           *Variant   `gorm:"size:1;index:idx_email_campaign_sends_variant" json:"variant,omitempty"`
	Status            SendStatus `gorm:"type:email_send_status;not null;default:'queued';index:idx_email_campaign_sends_status" json:"status"`
	ScheduledAt       time.Time  `gorm:"not null;index:idx_email_campaign_sends_scheduled_at" json:"scheduled_at"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ProviderMessageID *string    `gorm:"size:255;index:idx_email_campaign_sends_provider_message_id" json:"provider_message_id,omitempty"`
	ErrorMessage      *string    `gorm:"type:text" json:"error_message,omitempty"`
	Metadata          JSONMap    `gorm:"type:jsonb;not null" json:"metadata"`
	CreatedAt         time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_email_campaign_sends_created_at" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	Campaign *Campaign     `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Step     *CampaignStep `gorm:"foreignKey:StepID;references:ID" json:"step,omitempty"`
	Events   []EmailEvent  `gorm:"foreignKey:SendID" json:"events,omitempty"`
}

// TableName returns the table name for the model
func (CampaignSend) TableName() string {
	return "email_campaign_sends"
}

// BeforeCreate is called before creating a new record
func (s *CampaignSend) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SendStatusQueued
	}
	if s.Metadata == nil {
		s.Metadata = JSONMap{}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *CampaignSend) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = utils.UTCNow()
	return nil
}

// IsDispatched reports whether the send already reached the
// delivered-or-better set and must not be handed to a provider again.
func (s *CampaignSend) IsDispatched() bool {
	for _, st := range DispatchedStatuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

// ApplyEventStatus applies the candidate status under the monotonic rule:
// the candidate wins only when its priority is >= the current priority.
// Returns true when the status changed. Equal-priority replays are accepted
// (same value written again) so duplicate webhooks stay harmless.
func (s *CampaignSend) ApplyEventStatus(candidate SendStatus) bool {
	if candidate.Priority() < s.Status.Priority() {
		return false
	}
	changed := s.Status != candidate
	s.Status = candidate
	return changed
}

// CampaignSendFilter represents filter criteria for campaign sends
type CampaignSendFilter struct {
	ID              *uint       `json:"id,omitempty"`
	UUID            *uuid.UUID  `json:"uuid,omitempty"`
	CampaignID      *uint       `json:"campaign_id,omitempty"`
	StepID          *uint       `json:"step_id,omitempty"`
	RecipientEmail  *string     `json:"recipient_email,omitempty"`
	Variant         *Variant    `json:"variant,omitempty"`
	Status          *SendStatus `json:"status,omitempty"`
	Statuses        []SendStatus
	ScheduledBefore *time.Time `json:"scheduled_before,omitempty"`
	ScheduledAfter  *time.Time `json:"scheduled_after,omitempty"`
	CreatedAfter    *time.Time `json:"created_after,omitempty"`
	CreatedBefore   *time.Time `json:"created_before,omitempty"`
}
