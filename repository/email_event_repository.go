package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// EmailEventRepositoryImpl implements the EmailEventRepository interface
type EmailEventRepositoryImpl struct {
	*BaseRepository[models.EmailEvent, models.EmailEventFilter]
}

// NewEmailEventRepository creates a new email event repository
func NewEmailEventRepository(db *gorm.DB) EmailEventRepository {
	return &EmailEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.EmailEvent, models.EmailEventFilter](db),
	}
}

type eventAggregateRow struct {
	Variant     *models.Variant
	Type        models.EventType
	Total       int64
	UniqueSends int64
}

// AggregateByCampaign groups a campaign's events by type. Total counts raw
// event rows; UniqueSends counts distinct sends so repeated opens from the
// same recipient count once in the unique metrics.
func (r *EmailEventRepositoryImpl) AggregateByCampaign(ctx context.Context, campaignID uint) ([]EventAggregate, error) {
	db := r.getDB(ctx)

	var rows []eventAggregateRow
	err := db.Model(&models.EmailEvent{}).
		Select("email_events.type AS type, COUNT(*) AS total, COUNT(DISTINCT email_events.send_id) AS unique_sends").
		Joins("JOIN email_campaign_sends ON email_campaign_sends.id = email_events.send_id").
		Where("email_campaign_sends.campaign_id = ?", campaignID).
		Group("email_events.type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate events for campaign %d: %w", campaignID, err)
	}

	aggregates := make([]EventAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, EventAggregate{
			Type:        row.Type,
			Total:       row.Total,
			UniqueSends: row.UniqueSends,
		})
	}

	return aggregates, nil
}

// AggregateByCampaignVariant is the per-variant breakdown of the same
// aggregation, restricted to sends that carry a variant.
func (r *EmailEventRepositoryImpl) AggregateByCampaignVariant(ctx context.Context, campaignID uint) ([]EventAggregate, error) {
	db := r.getDB(ctx)

	var rows []eventAggregateRow
	err := db.Model(&models.EmailEvent{}).
		Select("email_campaign_sends.variant AS variant, email_events.type AS type, COUNT(*) AS total, COUNT(DISTINCT email_events.send_id) AS unique_sends").
		Joins("JOIN email_campaign_sends ON email_campaign_sends.id = email_events.send_id").
		Where("email_campaign_sends.campaign_id = ? AND email_campaign_sends.variant IS NOT NULL", campaignID).
		Group("email_campaign_sends.variant, email_events.type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate variant events for campaign %d: %w", campaignID, err)
	}

	aggregates := make([]EventAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, EventAggregate{
			Variant:     row.Variant,
			Type:        row.Type,
			Total:       row.Total,
			UniqueSends: row.UniqueSends,
		})
	}

	return aggregates, nil
}

// ByFilter retrieves email events based on filter criteria
func (r *EmailEventRepositoryImpl) ByFilter(ctx context.Context, filter models.EmailEventFilter, orderBy string, limit, offset int) ([]*models.EmailEvent, error) {
	db := r.getDB(ctx)

	var events []*models.EmailEvent
	query := r.applyFilter(db.Model(&models.EmailEvent{}), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find email events by filter: %w", err)
	}

	return events, nil
}

// Count returns the number of email events matching the filter
func (r *EmailEventRepositoryImpl) Count(ctx context.Context, filter models.EmailEventFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.EmailEvent{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count email events: %w", err)
	}

	return count, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *EmailEventRepositoryImpl) applyFilter(db *gorm.DB, filter models.EmailEventFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.SendID != nil {
		db = db.Where("send_id = ?", *filter.SendID)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.OccurredAfter != nil {
		db = db.Where("occurred_at >= ?", *filter.OccurredAfter)
	}
	if filter.OccurredBefore != nil {
		db = db.Where("occurred_at <= ?", *filter.OccurredBefore)
	}

	return db
}
