package repository

import (
	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// IngestionBatchRepositoryImpl implements the IngestionBatchRepository
// interface. Batches are append-only audit rows.
type IngestionBatchRepositoryImpl struct {
	*BaseRepository[models.IngestionBatch, models.IngestionBatchFilter]
}

// NewIngestionBatchRepository creates a new ingestion batch repository
func NewIngestionBatchRepository(db *gorm.DB) IngestionBatchRepository {
	return &IngestionBatchRepositoryImpl{
		BaseRepository: NewBaseRepository[models.IngestionBatch, models.IngestionBatchFilter](db),
	}
}
