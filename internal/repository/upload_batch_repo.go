package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sathvik-zluri/moneytrack/internal/models"
)

var ErrBatchNotFound = errors.New("upload batch not found")

type UploadBatchRepository struct {
	db *gorm.DB
}

func NewUploadBatchRepository(db *gorm.DB) *UploadBatchRepository {
	return &UploadBatchRepository{db: db}
}

// Expose DB if needed
func (r *UploadBatchRepository) DB() *gorm.DB {
	return r.db
}

// Record inserts a finished upload. A missing ID is generated.
func (r *UploadBatchRepository) Record(ctx context.Context, batch *models.UploadBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(batch).Error
}

// List returns the most recent uploads first.
func (r *UploadBatchRepository) List(ctx context.Context, limit int) ([]models.UploadBatch, error) {
	var batches []models.UploadBatch
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&batches).Error
	return batches, err
}

func (r *UploadBatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadBatch, error) {
	var batch models.UploadBatch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
