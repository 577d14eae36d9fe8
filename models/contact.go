package models

import "time"

// Contact is the live person record merged into the render context at
// dispatch time. Contact management is owned by the CRM collaborator; the
// delivery engine reads it and never writes it.
type Contact struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:255;not null;index:idx_contacts_email" json:"email"`
	FirstName      *string   `gorm:"size:100" json:"first_name,omitempty"`
	LastName       *string   `gorm:"size:100" json:"last_name,omitempty"`
	DisplayName    string    `gorm:"size:255" json:"display_name"`
	OrganisationID *uint     `gorm:"index:idx_contacts_organisation_id" json:"organisation_id,omitempty"`
	CustomData     JSONMap   `gorm:"type:jsonb" json:"custom_data,omitempty"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Organisation *Organisation `gorm:"foreignKey:OrganisationID;references:ID" json:"organisation,omitempty"`
}

// TableName returns the table name for the model
func (Contact) TableName() string { return "contacts" }

// Organisation is the live company record; read-only for the delivery engine
type Organisation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Domain    *string   `gorm:"size:255" json:"domain,omitempty"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (Organisation) TableName() string { return "organisations" }

// ContactFilter provides filter fields for repository queries
type ContactFilter struct {
	ID             *uint
	Email          *string
	OrganisationID *uint
}

// OrganisationFilter provides filter fields for repository queries
type OrganisationFilter struct {
	ID     *uint
	Domain *string
}
