package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignStatus represents the lifecycle status of an email campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusRunning,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// CampaignProvider identifies the email provider a campaign dispatches through
type CampaignProvider string

const (
	CampaignProviderSendGrid CampaignProvider = "sendgrid"
	CampaignProviderResend   CampaignProvider = "resend"
)

// String returns the string representation of the provider
func (p CampaignProvider) String() string {
	return string(p)
}

// Valid checks if the provider is valid
func (p CampaignProvider) Valid() bool {
	switch p {
	case CampaignProviderSendGrid, CampaignProviderResend:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignProvider
func (p *CampaignProvider) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = CampaignProvider(v)
	case []byte:
		*p = CampaignProvider(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignProvider", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignProvider
func (p CampaignProvider) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid CampaignProvider: %s", p)
	}
	return string(p), nil
}

// ScheduleType represents how a campaign is triggered
type ScheduleType string

const (
	ScheduleTypeManual    ScheduleType = "manual"
	ScheduleTypeImmediate ScheduleType = "immediate"
	ScheduleTypeScheduled ScheduleType = "scheduled"
	ScheduleTypeRecurring ScheduleType = "recurring"
)

// String returns the string representation of the schedule type
func (t ScheduleType) String() string {
	return string(t)
}

// Valid checks if the schedule type is valid
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeManual, ScheduleTypeImmediate, ScheduleTypeScheduled, ScheduleTypeRecurring:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ScheduleType
func (t *ScheduleType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = ScheduleType(v)
	case []byte:
		*t = ScheduleType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ScheduleType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ScheduleType
func (t ScheduleType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ScheduleType: %s", t)
	}
	return string(t), nil
}

// Campaign represents an email campaign in the database. The delivery engine
// only reads identity/provider fields and updates scheduling-relevant ones
// (totals, status, schedule type); full campaign CRUD lives elsewhere.
type Campaign struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_email_campaigns_uuid" json:"uuid"`
	Name              string           `gorm:"size:255;not null" json:"name"`
	Provider          CampaignProvider `gorm:"type:email_campaign_provider;not null;default:'sendgrid'" json:"provider"`
	FromEmail         string           `gorm:"size:255;not null" json:"from_email"`
	FromName          string           `gorm:"size:255" json:"from_name"`
	ReplyTo           *string          `gorm:"size:255" json:"reply_to,omitempty"`
	ScheduleType      ScheduleType     `gorm:"type:email_campaign_schedule_type;not null;default:'manual'" json:"schedule_type"`
	IsABTest          bool             `gorm:"not null;default:false" json:"is_ab_test"`
	ABSplitPercentage int              `gorm:"not null;default:50" json:"ab_split_percentage"`
	TrackOpens        bool             `gorm:"not null;default:true" json:"track_opens"`
	TrackClicks       bool             `gorm:"not null;default:true" json:"track_clicks"`
	DefaultTemplateID *uint            `gorm:"index:idx_email_campaigns_default_template_id" json:"default_template_id,omitempty"`
	TotalRecipients   int              `gorm:"not null;default:0" json:"total_recipients"`
	TotalSent         int64            `gorm:"not null;default:0" json:"total_sent"`
	LastSentAt        *time.Time       `json:"last_sent_at,omitempty"`
	Status            CampaignStatus   `gorm:"type:email_campaign_status;not null;default:'draft';index:idx_email_campaigns_status" json:"status"`
	ScheduledAt       *time.Time       `gorm:"index:idx_email_campaigns_scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt         time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_email_campaigns_created_at" json:"created_at"`
	UpdatedAt         *time.Time       `json:"updated_at,omitempty"`

	// Relations
	Steps []CampaignStep `gorm:"foreignKey:CampaignID" json:"steps,omitempty"`
	Sends []CampaignSend `gorm:"foreignKey:CampaignID" json:"sends,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "email_campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint             `json:"id,omitempty"`
	UUID          *uuid.UUID        `json:"uuid,omitempty"`
	Provider      *CampaignProvider `json:"provider,omitempty"`
	Status        *CampaignStatus   `json:"status,omitempty"`
	ScheduleType  *ScheduleType     `json:"schedule_type,omitempty"`
	IsABTest      *bool             `json:"is_ab_test,omitempty"`
	CreatedAfter  *time.Time        `json:"created_after,omitempty"`
	CreatedBefore *time.Time        `json:"created_before,omitempty"`
}
