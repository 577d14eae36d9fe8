package repository

import (
	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// EmailTemplateRepositoryImpl implements the EmailTemplateRepository interface.
// Template authoring lives elsewhere; the delivery engine only reads.
type EmailTemplateRepositoryImpl struct {
	*BaseRepository[models.EmailTemplate, models.EmailTemplateFilter]
}

// NewEmailTemplateRepository creates a new email template repository
func NewEmailTemplateRepository(db *gorm.DB) EmailTemplateRepository {
	return &EmailTemplateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.EmailTemplate, models.EmailTemplateFilter](db),
	}
}
