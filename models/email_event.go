package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// EventType is a normalized provider-reported occurrence tied to a send
type EventType string

const (
	EventTypeDelivered    EventType = "delivered"
	EventTypeOpened       EventType = "opened"
	EventTypeClicked      EventType = "clicked"
	EventTypeBounced      EventType = "bounced"
	EventTypeComplained   EventType = "complained"
	EventTypeUnsubscribed EventType = "unsubscribed"
	EventTypeDropped      EventType = "dropped"
)

// eventStatusCandidates maps each event type to the send status it argues for
var eventStatusCandidates = map[EventType]SendStatus{
	EventTypeDelivered:    SendStatusDelivered,
	EventTypeOpened:       SendStatusOpened,
	EventTypeClicked:      SendStatusClicked,
	EventTypeBounced:      SendStatusBounced,
	EventTypeComplained:   SendStatusComplained,
	EventTypeUnsubscribed: SendStatusUnsubscribed,
	EventTypeDropped:      SendStatusFailed,
}

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// Valid checks if the event type is valid
func (t EventType) Valid() bool {
	_, ok := eventStatusCandidates[t]
	return ok
}

// CandidateStatus returns the send status this event type argues for under
// the monotonic state-machine rule.
func (t EventType) CandidateStatus() (SendStatus, bool) {
	st, ok := eventStatusCandidates[t]
	return st, ok
}

// Scan implements the sql.Scanner interface for EventType
func (t *EventType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = EventType(v)
	case []byte:
		*t = EventType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into EventType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for EventType
func (t EventType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid EventType: %s", t)
	}
	return string(t), nil
}

// EmailEvent is one provider-reported occurrence tied to exactly one send.
// Append-only; multiple events may reference the same send.
type EmailEvent struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	SendID            uint            `gorm:"not null;index:idx_email_events_send_id" json:"send_id"`
	Type              EventType       `gorm:"type:email_event_type;not null;index:idx_email_events_type" json:"type"`
	OccurredAt        time.Time       `gorm:"not null;index:idx_email_events_occurred_at" json:"occurred_at"`
	ProviderEventID   *string         `gorm:"size:255;index:idx_email_events_provider_event_id" json:"provider_event_id,omitempty"`
	ProviderMessageID *string         `gorm:"size:255" json:"provider_message_id,omitempty"`
	Payload           json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`
	IPAddress         *string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent         *string         `gorm:"type:text" json:"user_agent,omitempty"`
	ClickURL          *string         `gorm:"type:text" json:"click_url,omitempty"`
	CreatedAt         time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Send *CampaignSend `gorm:"foreignKey:SendID;references:ID" json:"send,omitempty"`
}

// TableName returns the table name for the model
func (EmailEvent) TableName() string {
	return "email_events"
}

// BeforeCreate is called before creating a new record
func (e *EmailEvent) BeforeCreate(tx *gorm.DB) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = utils.UTCNow()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// EmailEventFilter provides filter fields for repository queries
type EmailEventFilter struct {
	ID             *uint
	SendID         *uint
	Type           *EventType
	OccurredAfter  *time.Time
	OccurredBefore *time.Time
}
