package models

import (
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// EmailTemplate holds the subject/HTML content referenced by campaigns and
// steps. Template authoring lives in the template-management service; the
// delivery engine only resolves templates by id.
type EmailTemplate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Subject     string    `gorm:"size:998;not null" json:"subject"`
	HTMLContent string    `gorm:"type:text;not null" json:"html_content"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for the model
func (EmailTemplate) TableName() string {
	return "email_templates"
}

// BeforeCreate is called before creating a new record
func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	return nil
}

// EmailTemplateFilter provides filter fields for repository queries
type EmailTemplateFilter struct {
	ID   *uint
	Name *string
}
