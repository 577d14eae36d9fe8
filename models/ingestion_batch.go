package models

import (
	"time"

	"github.com/lib/pq"
)

// IngestionBatch is an audit row written once per webhook ingestion call.
// It records how many payloads the provider delivered, how many resolved to a
// send, and the provider event ids seen, so replayed batches can be traced.
type IngestionBatch struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Provider         CampaignProvider `gorm:"type:email_campaign_provider;not null;index:idx_webhook_ingestion_batches_provider" json:"provider"`
	EventCount       int              `gorm:"not null;default:0" json:"event_count"`
	IngestedCount    int              `gorm:"not null;default:0" json:"ingested_count"`
	SkippedCount     int              `gorm:"not null;default:0" json:"skipped_count"`
	ProviderEventIDs pq.StringArray   `gorm:"type:text[]" json:"provider_event_ids"`
	CreatedAt        time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_webhook_ingestion_batches_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (IngestionBatch) TableName() string { return "webhook_ingestion_batches" }

// IngestionBatchFilter provides filter fields for repository queries
type IngestionBatchFilter struct {
	ID            *uint
	Provider      *CampaignProvider
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
