package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// CampaignSendRepositoryImpl implements the CampaignSendRepository interface
type CampaignSendRepositoryImpl struct {
	*BaseRepository[models.CampaignSend, models.CampaignSendFilter]
}

// NewCampaignSendRepository creates a new campaign send repository
func NewCampaignSendRepository(db *gorm.DB) CampaignSendRepository {
	return &CampaignSendRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignSend, models.CampaignSendFilter](db),
	}
}

// ByUUID retrieves a campaign send by UUID
func (r *CampaignSendRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.CampaignSend, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.CampaignSendFilter{UUID: &parsedUUID}
	sends, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign send by UUID: %w", err)
	}

	if len(sends) == 0 {
		return nil, nil
	}

	return sends[0], nil
}

// Update updates a campaign send
func (r *CampaignSendRepositoryImpl) Update(ctx context.Context, send *models.CampaignSend) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	send.UpdatedAt = utils.UTCNow()

	err = db.Omit("Campaign", "Step", "Events").Save(send).Error
	if err != nil {
		return fmt.Errorf("failed to update campaign send: %w", err)
	}

	return nil
}

// ClaimForDispatch moves a send to 'sending' with a single conditional
// UPDATE. The WHERE clause excludes in-flight and delivered-or-better
// statuses, so under concurrent dispatchers exactly one claim wins.
func (r *CampaignSendRepositoryImpl) ClaimForDispatch(ctx context.Context, id uint) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	excluded := append([]models.SendStatus{models.SendStatusSending}, models.DispatchedStatuses...)

	result := db.Model(&models.CampaignSend{}).
		Where("id = ? AND status NOT IN ?", id, excluded).
		Updates(map[string]interface{}{
			"status":        models.SendStatusSending,
			"error_message": nil,
			"updated_at":    utils.UTCNow(),
		})

	if result.Error != nil {
		err = result.Error
		return false, fmt.Errorf("failed to claim send for dispatch: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// ListDue returns queued/scheduled sends whose scheduled time has passed,
// oldest first, capped at limit.
func (r *CampaignSendRepositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.CampaignSend, error) {
	db := r.getDB(ctx)

	var sends []*models.CampaignSend
	query := db.Model(&models.CampaignSend{}).
		Where("status IN ?", []models.SendStatus{models.SendStatusQueued, models.SendStatusScheduled}).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Order("scheduled_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&sends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due sends: %w", err)
	}

	return sends, nil
}

// SweepStuckSending fails sends left in 'sending' since before the cutoff.
// A send only stays in 'sending' when a dispatcher died mid-flight.
func (r *CampaignSendRepositoryImpl) SweepStuckSending(ctx context.Context, cutoff time.Time, errorMessage string) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.CampaignSend{}).
		Where("status = ? AND updated_at < ?", models.SendStatusSending, cutoff).
		Updates(map[string]interface{}{
			"status":        models.SendStatusFailed,
			"error_message": errorMessage,
			"updated_at":    utils.UTCNow(),
		})

	if result.Error != nil {
		err = result.Error
		return 0, fmt.Errorf("failed to sweep stuck sends: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ByProviderMessageID retrieves a send by the provider's message identifier
func (r *CampaignSendRepositoryImpl) ByProviderMessageID(ctx context.Context, providerMessageID string) (*models.CampaignSend, error) {
	db := r.getDB(ctx)

	var send models.CampaignSend
	err := db.Where("provider_message_id = ?", providerMessageID).Last(&send).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find send by provider message ID: %w", err)
	}

	return &send, nil
}

// LatestByRecipientBetween returns the most recently created send to the
// given email within [from, to], or nil when none exists.
func (r *CampaignSendRepositoryImpl) LatestByRecipientBetween(ctx context.Context, email string, from, to time.Time) (*models.CampaignSend, error) {
	db := r.getDB(ctx)

	var send models.CampaignSend
	err := db.Where("recipient_email = ? AND created_at >= ? AND created_at <= ?", email, from, to).
		Order("created_at DESC").
		First(&send).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find send by recipient email: %w", err)
	}

	return &send, nil
}

// ByFilter retrieves campaign sends based on filter criteria
func (r *CampaignSendRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignSendFilter, orderBy string, limit, offset int) ([]*models.CampaignSend, error) {
	db := r.getDB(ctx)

	var sends []*models.CampaignSend
	query := r.applyFilter(db.Model(&models.CampaignSend{}), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&sends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign sends by filter: %w", err)
	}

	return sends, nil
}

// Count returns the number of campaign sends matching the filter
func (r *CampaignSendRepositoryImpl) Count(ctx context.Context, filter models.CampaignSendFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignSend{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count campaign sends: %w", err)
	}

	return count, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignSendRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignSendFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.StepID != nil {
		db = db.Where("step_id = ?", *filter.StepID)
	}
	if filter.RecipientEmail != nil {
		db = db.Where("recipient_email = ?", *filter.RecipientEmail)
	}
	if filter.Variant != nil {
		db = db.Where("variant = ?", *filter.Variant)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.ScheduledBefore != nil {
		db = db.Where("scheduled_at <= ?", *filter.ScheduledBefore)
	}
	if filter.ScheduledAfter != nil {
		db = db.Where("scheduled_at >= ?", *filter.ScheduledAfter)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
