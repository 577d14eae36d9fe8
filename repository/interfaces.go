// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// CampaignRepository defines the scheduling-relevant operations on campaigns.
// Campaign CRUD beyond these lives in the campaign-management service.
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
	// IncrementTotalSent atomically bumps total_sent and stamps last_sent_at
	// so concurrent dispatchers never lose updates.
	IncrementTotalSent(ctx context.Context, id uint, sentAt time.Time) error
}

// CampaignSendRepository defines operations for campaign sends
type CampaignSendRepository interface {
	Repository[models.CampaignSend, models.CampaignSendFilter]
	ByUUID(ctx context.Context, uuid string) (*models.CampaignSend, error)
	Update(ctx context.Context, send *models.CampaignSend) error
	// ClaimForDispatch moves a send to 'sending' iff it is not already in
	// flight or in the delivered-or-better set. Returns false when the claim
	// lost (already sending/dispatched) without touching the row.
	ClaimForDispatch(ctx context.Context, id uint) (bool, error)
	// ListDue returns sends whose scheduled time has passed and that are
	// still waiting in queued/scheduled.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.CampaignSend, error)
	// SweepStuckSending reconciles sends stuck in 'sending' longer than the
	// cutoff to 'failed' and returns how many rows were swept.
	SweepStuckSending(ctx context.Context, cutoff time.Time, errorMessage string) (int64, error)
	ByProviderMessageID(ctx context.Context, providerMessageID string) (*models.CampaignSend, error)
	// LatestByRecipientBetween returns the most recently created send to the
	// given email within [from, to], or nil.
	LatestByRecipientBetween(ctx context.Context, email string, from, to time.Time) (*models.CampaignSend, error)
}

// EventAggregate is one row of the grouped event statistics for a campaign
type EventAggregate struct {
	Variant     *models.Variant
	Type        models.EventType
	Total       int64
	UniqueSends int64
}

// EmailEventRepository defines operations for email events
type EmailEventRepository interface {
	Repository[models.EmailEvent, models.EmailEventFilter]
	// AggregateByCampaign groups events of a campaign by type with distinct
	// send counts for unique metrics.
	AggregateByCampaign(ctx context.Context, campaignID uint) ([]EventAggregate, error)
	// AggregateByCampaignVariant is the same aggregation grouped by the
	// send's variant, restricted to sends with a non-null variant.
	AggregateByCampaignVariant(ctx context.Context, campaignID uint) ([]EventAggregate, error)
}

// EmailTemplateRepository is the read-only template lookup port
type EmailTemplateRepository interface {
	ByID(ctx context.Context, id uint) (*models.EmailTemplate, error)
}

// ContactRepository reads live contact data for render-context merging
type ContactRepository interface {
	ByID(ctx context.Context, id uint) (*models.Contact, error)
	ByEmail(ctx context.Context, email string) (*models.Contact, error)
}

// OrganisationRepository reads live organisation data
type OrganisationRepository interface {
	ByID(ctx context.Context, id uint) (*models.Organisation, error)
}

// IngestionBatchRepository persists webhook batch audit rows
type IngestionBatchRepository interface {
	Save(ctx context.Context, batch *models.IngestionBatch) error
}
