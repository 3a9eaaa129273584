package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/internal/util"
	"wellcoach_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AnnotationService struct {
	catalog      catalog.Catalog
	bookmarkRepo *repository.BookmarkRepository
	noteRepo     *repository.NoteRepository
	now          func() time.Time
}

func NewAnnotationService(cat catalog.Catalog, bookmarkRepo *repository.BookmarkRepository, noteRepo *repository.NoteRepository) *AnnotationService {
	return &AnnotationService{
		catalog:      cat,
		bookmarkRepo: bookmarkRepo,
		noteRepo:     noteRepo,
		now:          time.Now,
	}
}

type BookmarkInput struct {
	SectionID string `json:"sectionId" binding:"required"`
	ContentID string `json:"contentId"`
	Title     string `json:"title"`
}

type NoteInput struct {
	SectionID string   `json:"sectionId"`
	Content   string   `json:"content" binding:"required"`
	IsPrivate *bool    `json:"isPrivate"`
	Tags      []string `json:"tags"`
}

type NoteUpdate struct {
	Content   *string  `json:"content"`
	IsPrivate *bool    `json:"isPrivate"`
	Tags      []string `json:"tags"`
}

func (s *AnnotationService) checkSection(moduleID, sectionID string) error {
	m, err := s.catalog.Module(moduleID)
	if err != nil {
		return err
	}
	if sectionID != "" && !m.HasSection(sectionID) {
		return fmt.Errorf("section %q of module %q: %w", sectionID, moduleID, util.ErrSectionNotFound)
	}
	return nil
}

func (s *AnnotationService) AddBookmark(ctx context.Context, userID, moduleID string, in BookmarkInput) (*model.ModuleBookmark, error) {
	if err := s.checkSection(moduleID, in.SectionID); err != nil {
		return nil, err
	}

	bookmark := &model.ModuleBookmark{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: in.SectionID,
		ContentID: in.ContentID,
		Title:     strings.TrimSpace(in.Title),
	}
	bookmark.CreatedAt = s.now()
	if err := s.bookmarkRepo.FirstOrCreate(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *AnnotationService) RemoveBookmark(ctx context.Context, userID, bookmarkID string) error {
	deleted, err := s.bookmarkRepo.DeleteOwned(ctx, userID, bookmarkID)
	if err != nil {
		return err
	}
	if !deleted {
		return util.ErrAnnotationNotFound
	}
	return nil
}

// ListBookmarks 读失败时记录日志并返回空列表；moduleID 为空时返回全部模块
func (s *AnnotationService) ListBookmarks(ctx context.Context, userID, moduleID string) []model.ModuleBookmark {
	var (
		list []model.ModuleBookmark
		err  error
	)
	if moduleID == "" {
		list, err = s.bookmarkRepo.FindByUser(ctx, userID)
	} else {
		list, err = s.bookmarkRepo.FindByUserAndModule(ctx, userID, moduleID)
	}
	if err != nil {
		logger.Log.Warn("Failed to load bookmarks", zap.String("userId", userID), zap.String("moduleId", moduleID), zap.Error(err))
		return []model.ModuleBookmark{}
	}
	if list == nil {
		list = []model.ModuleBookmark{}
	}
	return list
}

func (s *AnnotationService) AddNote(ctx context.Context, userID, moduleID string, in NoteInput) (*model.ModuleNote, error) {
	if err := s.checkSection(moduleID, in.SectionID); err != nil {
		return nil, err
	}

	note := &model.ModuleNote{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: in.SectionID,
		Content:   in.Content,
		IsPrivate: true,
		Tags:      cleanTags(in.Tags),
	}
	if in.IsPrivate != nil {
		note.IsPrivate = *in.IsPrivate
	}
	now := s.now()
	note.CreatedAt = now
	note.UpdatedAt = now

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *AnnotationService) UpdateNote(ctx context.Context, userID, noteID string, in NoteUpdate) (*model.ModuleNote, error) {
	note, err := s.noteRepo.FindOwned(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnnotationNotFound
		}
		return nil, err
	}

	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.IsPrivate != nil {
		note.IsPrivate = *in.IsPrivate
	}
	if in.Tags != nil {
		note.Tags = cleanTags(in.Tags)
	}
	note.UpdatedAt = s.now()

	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *AnnotationService) DeleteNote(ctx context.Context, userID, noteID string) error {
	deleted, err := s.noteRepo.DeleteOwned(ctx, userID, noteID)
	if err != nil {
		return err
	}
	if !deleted {
		return util.ErrAnnotationNotFound
	}
	return nil
}

func (s *AnnotationService) ListNotes(ctx context.Context, userID, moduleID string) []model.ModuleNote {
	list, err := s.noteRepo.FindByUserAndModule(ctx, userID, moduleID)
	if err != nil {
		logger.Log.Warn("Failed to load notes", zap.String("userId", userID), zap.String("moduleId", moduleID), zap.Error(err))
		return []model.ModuleNote{}
	}
	if list == nil {
		list = []model.ModuleNote{}
	}
	return list
}

// cleanTags 去掉空白和重复标签，保持原顺序
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
