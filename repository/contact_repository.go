package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements the ContactRepository interface.
// Contacts belong to the CRM; the delivery engine only reads them at
// render time to merge live fields.
type ContactRepositoryImpl struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db),
	}
}

// ByEmail retrieves a contact by email address
func (r *ContactRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Contact, error) {
	db := r.getDB(ctx)

	var contact models.Contact
	err := db.Where("email = ?", email).Last(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find contact by email: %w", err)
	}

	return &contact, nil
}

// OrganisationRepositoryImpl implements the OrganisationRepository interface
type OrganisationRepositoryImpl struct {
	*BaseRepository[models.Organisation, models.OrganisationFilter]
}

// NewOrganisationRepository creates a new organisation repository
func NewOrganisationRepository(db *gorm.DB) OrganisationRepository {
	return &OrganisationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Organisation, models.OrganisationFilter](db),
	}
}
