package models

import (
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// Variant is an A/B treatment arm assigned to a recipient or declared on a step
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// Valid checks if the variant is valid
func (v Variant) Valid() bool {
	return v == VariantA || v == VariantB
}

// String returns the string representation of the variant
func (v Variant) String() string {
	return string(v)
}

// CampaignStep is one stage of a (possibly multi-step, possibly A/B-branched)
// campaign sequence. A nil Variant means the step goes to both arms.
type CampaignStep struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;index:idx_email_campaign_steps_campaign_id" json:"campaign_id"`
	StepOrder  int       `gorm:"not null;default:0" json:"step_order"`
	TemplateID *uint     `json:"template_id,omitempty"`
	Variant    *Variant  `gorm:"size:1" json:"variant,omitempty"`
	DelayHours int       `gorm:"not null;default:0" json:"delay_hours"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Campaign *Campaign      `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Template *EmailTemplate `gorm:"foreignKey:TemplateID;references:ID" json:"template,omitempty"`
}

// TableName returns the table name for the model
func (CampaignStep) TableName() string {
	return "email_campaign_steps"
}

// BeforeCreate is called before creating a new record
func (s *CampaignStep) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// AppliesTo reports whether this step should be materialized for a recipient
// holding the given variant. Steps without an explicit variant apply to
// everyone; explicit-variant steps only apply when the campaign is an A/B test
// and the recipient landed in the same arm.
func (s *CampaignStep) AppliesTo(isABTest bool, recipientVariant *Variant) bool {
	if s.Variant == nil || !isABTest {
		return true
	}
	return recipientVariant != nil && *recipientVariant == *s.Variant
}

// CampaignStepFilter provides filter fields for repository queries
type CampaignStepFilter struct {
	ID         *uint
	CampaignID *uint
	Variant    *Variant
}
