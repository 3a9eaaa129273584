package repository

import (
	"context"

	"wellcoach_backend/internal/model"

	"gorm.io/gorm"
)

// ExerciseSubmissionRepository 练习提交记录只追加，不提供更新
type ExerciseSubmissionRepository struct {
	DB *gorm.DB
}

func NewExerciseSubmissionRepository(db *gorm.DB) *ExerciseSubmissionRepository {
	return &ExerciseSubmissionRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *ExerciseSubmissionRepository) WithTx(tx *gorm.DB) *ExerciseSubmissionRepository {
	return &ExerciseSubmissionRepository{DB: tx}
}

func (r *ExerciseSubmissionRepository) Create(ctx context.Context, submission *model.ExerciseSubmission) error {
	return r.DB.WithContext(ctx).Create(submission).Error
}

// FindByUserAndExercise 按提交时间倒序
func (r *ExerciseSubmissionRepository) FindByUserAndExercise(ctx context.Context, userID, moduleID, exerciseID string) ([]model.ExerciseSubmission, error) {
	var list []model.ExerciseSubmission
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ? AND exercise_id = ?", userID, moduleID, exerciseID).
		Order("submitted_at DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *ExerciseSubmissionRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.ExerciseSubmission{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
