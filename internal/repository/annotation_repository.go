package repository

import (
	"context"

	"wellcoach_backend/internal/model"

	"gorm.io/gorm"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{DB: db}
}

// FirstOrCreate 同一位置重复收藏返回已有记录
func (r *BookmarkRepository) FirstOrCreate(ctx context.Context, bookmark *model.ModuleBookmark) error {
	return r.DB.WithContext(ctx).
		Where(map[string]any{
			"user_id":    bookmark.UserID,
			"module_id":  bookmark.ModuleID,
			"section_id": bookmark.SectionID,
			"content_id": bookmark.ContentID,
		}).
		Attrs(model.ModuleBookmark{Title: bookmark.Title}).
		FirstOrCreate(bookmark).Error
}

func (r *BookmarkRepository) FindByUserAndModule(ctx context.Context, userID, moduleID string) ([]model.ModuleBookmark, error) {
	var list []model.ModuleBookmark
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *BookmarkRepository) FindByUser(ctx context.Context, userID string) ([]model.ModuleBookmark, error) {
	var list []model.ModuleBookmark
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// DeleteOwned 只删除属于该用户的记录，返回是否删除
func (r *BookmarkRepository) DeleteOwned(ctx context.Context, userID, id string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.ModuleBookmark{})
	return res.RowsAffected > 0, res.Error
}

type NoteRepository struct {
	DB *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.ModuleNote) error {
	return r.DB.WithContext(ctx).Create(note).Error
}

func (r *NoteRepository) FindOwned(ctx context.Context, userID, id string) (*model.ModuleNote, error) {
	var note model.ModuleNote
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *NoteRepository) Save(ctx context.Context, note *model.ModuleNote) error {
	return r.DB.WithContext(ctx).Save(note).Error
}

func (r *NoteRepository) FindByUserAndModule(ctx context.Context, userID, moduleID string) ([]model.ModuleNote, error) {
	var list []model.ModuleNote
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *NoteRepository) DeleteOwned(ctx context.Context, userID, id string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.ModuleNote{})
	return res.RowsAffected > 0, res.Error
}
