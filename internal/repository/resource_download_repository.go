package repository

import (
	"context"

	"wellcoach_backend/internal/model"

	"gorm.io/gorm"
)

type ResourceDownloadRepository struct {
	DB *gorm.DB
}

func NewResourceDownloadRepository(db *gorm.DB) *ResourceDownloadRepository {
	return &ResourceDownloadRepository{DB: db}
}

func (r *ResourceDownloadRepository) Create(ctx context.Context, d *model.ResourceDownload) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *ResourceDownloadRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.ResourceDownload{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
