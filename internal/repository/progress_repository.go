package repository

import (
	"context"
	"errors"
	"time"

	"wellcoach_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Transaction fn 中拿到的仓库绑定在同一个事务上
func (r *ProgressRepository) Transaction(ctx context.Context, fn func(txRepo *ProgressRepository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProgressRepository{DB: tx})
	})
}

// LockOrCreate 对 (用户, 模块) 行加 FOR UPDATE 锁；不存在时先插入 not_started 行再加锁读取。
// 必须在 Transaction 内调用。
func (r *ProgressRepository) LockOrCreate(ctx context.Context, userID, moduleID string, now time.Time) (*model.UserModuleProgress, bool, error) {
	db := r.DB.WithContext(ctx)

	var progress model.UserModuleProgress
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if err == nil {
		return &progress, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	fresh := &model.UserModuleProgress{
		UserID:         userID,
		ModuleID:       moduleID,
		Status:         model.StatusNotStarted,
		LastAccessedAt: now,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh)
	if res.Error != nil {
		return nil, false, res.Error
	}

	// 并发插入时对方可能先写入，统一重新加锁读取
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error; err != nil {
		return nil, false, err
	}
	return &progress, res.RowsAffected == 1, nil
}

func (r *ProgressRepository) FindByUserAndModule(ctx context.Context, userID, moduleID string) (*model.UserModuleProgress, error) {
	var progress model.UserModuleProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) FindByUser(ctx context.Context, userID string) ([]model.UserModuleProgress, error) {
	var list []model.UserModuleProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("module_id").
		Find(&list).Error
	return list, err
}

// FindCompletedModuleIDs 返回用户已完成模块的 id
func (r *ProgressRepository) FindCompletedModuleIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.UserModuleProgress{}).
		Where("user_id = ? AND status = ?", userID, model.StatusCompleted).
		Pluck("module_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) Save(ctx context.Context, progress *model.UserModuleProgress) error {
	return r.DB.WithContext(ctx).Save(progress).Error
}

// AddCompletedSection 重复插入不报错，返回是否新增
func (r *ProgressRepository) AddCompletedSection(ctx context.Context, userID, moduleID, sectionID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CompletedSection{UserID: userID, ModuleID: moduleID, SectionID: sectionID})
	return res.RowsAffected == 1, res.Error
}

func (r *ProgressRepository) AddCompletedExercise(ctx context.Context, userID, moduleID, exerciseID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CompletedExercise{UserID: userID, ModuleID: moduleID, ExerciseID: exerciseID})
	return res.RowsAffected == 1, res.Error
}

func (r *ProgressRepository) CompletedSectionIDs(ctx context.Context, userID, moduleID string) ([]string, error) {
	ids := []string{}
	err := r.DB.WithContext(ctx).
		Model(&model.CompletedSection{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("created_at, section_id").
		Pluck("section_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) CompletedExerciseIDs(ctx context.Context, userID, moduleID string) ([]string, error) {
	ids := []string{}
	err := r.DB.WithContext(ctx).
		Model(&model.CompletedExercise{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("created_at, exercise_id").
		Pluck("exercise_id", &ids).Error
	return ids, err
}

// CompletedByUser 按模块分组返回用户全部已完成的小节和练习
func (r *ProgressRepository) CompletedByUser(ctx context.Context, userID string) (map[string][]string, map[string][]string, error) {
	var sections []model.CompletedSection
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, section_id").
		Find(&sections).Error; err != nil {
		return nil, nil, err
	}

	var exercises []model.CompletedExercise
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, exercise_id").
		Find(&exercises).Error; err != nil {
		return nil, nil, err
	}

	sectionMap := make(map[string][]string)
	for _, s := range sections {
		sectionMap[s.ModuleID] = append(sectionMap[s.ModuleID], s.SectionID)
	}
	exerciseMap := make(map[string][]string)
	for _, e := range exercises {
		exerciseMap[e.ModuleID] = append(exerciseMap[e.ModuleID], e.ExerciseID)
	}
	return sectionMap, exerciseMap, nil
}
