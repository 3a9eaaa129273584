package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/internal/util"
	"wellcoach_backend/pkg/logger"
	"wellcoach_backend/pkg/monitoring"
	"wellcoach_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 用户模块进度的唯一写入方。每次写操作在一个事务内锁定 (用户, 模块) 行。
type ProgressService struct {
	catalog              catalog.Catalog
	progressRepo         *repository.ProgressRepository
	annotations          *AnnotationService
	enforcePrerequisites bool
	now                  func() time.Time
}

func NewProgressService(cat catalog.Catalog, progressRepo *repository.ProgressRepository, annotations *AnnotationService, cfg *config.TrainingConfig) *ProgressService {
	return &ProgressService{
		catalog:              cat,
		progressRepo:         progressRepo,
		annotations:          annotations,
		enforcePrerequisites: cfg.EnforcePrerequisites,
		now:                  time.Now,
	}
}

func startSpan(ctx context.Context, name, userID, moduleID string) (context.Context, trace.Span) {
	return tracing.Tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("module.id", moduleID),
	))
}

// loadCompletion 填充已完成的小节、练习并按目录重新计算百分比，不在目录中的 id 不计入
func loadCompletion(ctx context.Context, repo *repository.ProgressRepository, p *model.UserModuleProgress, m *model.TrainingModule) error {
	sections, err := repo.CompletedSectionIDs(ctx, p.UserID, p.ModuleID)
	if err != nil {
		return err
	}
	exercises, err := repo.CompletedExerciseIDs(ctx, p.UserID, p.ModuleID)
	if err != nil {
		return err
	}
	p.CompletedSections = m.KnownSections(sections)
	p.CompletedExercises = m.KnownExercises(exercises)
	p.Recompute(m.TotalSections())
	return nil
}

func (s *ProgressService) checkPrerequisites(ctx context.Context, userID string, m *model.TrainingModule) error {
	if !s.enforcePrerequisites || len(m.Prerequisites) == 0 {
		return nil
	}
	completed, err := s.progressRepo.FindCompletedModuleIDs(ctx, userID)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	var missing []string
	for _, p := range m.Prerequisites {
		if !done[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("module %q requires %v: %w", m.ID, missing, util.ErrPrerequisitesNotMet)
	}
	return nil
}

// StartModule 不存在时创建 in_progress 记录，已存在时刷新访问时间。重复调用幂等。
func (s *ProgressService) StartModule(ctx context.Context, userID, moduleID string) (*model.UserModuleProgress, error) {
	ctx, span := startSpan(ctx, "progress.StartModule", userID, moduleID)
	defer span.End()

	m, err := s.catalog.Module(moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPrerequisites(ctx, userID, m); err != nil {
		return nil, err
	}

	var (
		progress *model.UserModuleProgress
		started  bool
	)
	err = s.progressRepo.Transaction(ctx, func(repo *repository.ProgressRepository) error {
		now := s.now()
		p, _, err := repo.LockOrCreate(ctx, userID, moduleID, now)
		if err != nil {
			return err
		}
		started = p.Status == model.StatusNotStarted
		p.Touch(now)
		if err := loadCompletion(ctx, repo, p, m); err != nil {
			return err
		}
		if err := repo.Save(ctx, p); err != nil {
			return err
		}
		progress = p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if started {
		monitoring.ModulesStarted.WithLabelValues(moduleID).Inc()
		logger.Log.Info("Module started", zap.String("userId", userID), zap.String("moduleId", moduleID))
	}
	return progress, nil
}

// CompleteSection 标记小节完成；完成数达到模块小节总数时进入 completed，completedAt 只写一次
func (s *ProgressService) CompleteSection(ctx context.Context, userID, moduleID, sectionID string) (*model.UserModuleProgress, error) {
	ctx, span := startSpan(ctx, "progress.CompleteSection", userID, moduleID)
	defer span.End()
	span.SetAttributes(attribute.String("section.id", sectionID))

	m, err := s.catalog.Module(moduleID)
	if err != nil {
		return nil, err
	}
	if !m.HasSection(sectionID) {
		return nil, fmt.Errorf("section %q of module %q: %w", sectionID, moduleID, util.ErrSectionNotFound)
	}

	var (
		progress  *model.UserModuleProgress
		added     bool
		completed bool
	)
	err = s.progressRepo.Transaction(ctx, func(repo *repository.ProgressRepository) error {
		now := s.now()
		p, _, err := repo.LockOrCreate(ctx, userID, moduleID, now)
		if err != nil {
			return err
		}
		p.Touch(now)

		added, err = repo.AddCompletedSection(ctx, userID, moduleID, sectionID)
		if err != nil {
			return err
		}
		if err := loadCompletion(ctx, repo, p, m); err != nil {
			return err
		}
		if len(p.CompletedSections) >= m.TotalSections() {
			completed = p.MarkCompleted(now)
		}
		if err := repo.Save(ctx, p); err != nil {
			return err
		}
		progress = p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if added {
		monitoring.SectionsCompleted.WithLabelValues(moduleID).Inc()
	}
	if completed {
		monitoring.ModulesCompleted.WithLabelValues(moduleID).Inc()
		logger.Log.Info("Module completed", zap.String("userId", userID), zap.String("moduleId", moduleID))
	}
	return progress, nil
}

// CompleteExercise 记录练习完成并累加用时，不影响小节完成状态
func (s *ProgressService) CompleteExercise(ctx context.Context, userID, moduleID, exerciseID string, submission *model.ExerciseSubmission) (*model.UserModuleProgress, error) {
	return s.completeExercise(ctx, userID, moduleID, exerciseID, submission, nil)
}

// completeExercise 中 persist 与进度更新在同一事务内执行，任一失败整体回滚
func (s *ProgressService) completeExercise(ctx context.Context, userID, moduleID, exerciseID string, submission *model.ExerciseSubmission, persist func(repo *repository.ProgressRepository) error) (*model.UserModuleProgress, error) {
	ctx, span := startSpan(ctx, "progress.CompleteExercise", userID, moduleID)
	defer span.End()
	span.SetAttributes(attribute.String("exercise.id", exerciseID))

	m, err := s.catalog.Module(moduleID)
	if err != nil {
		return nil, err
	}

	timeSpent := 0
	if submission != nil && submission.TimeSpent > 0 {
		timeSpent = submission.TimeSpent
	}

	var progress *model.UserModuleProgress
	err = s.progressRepo.Transaction(ctx, func(repo *repository.ProgressRepository) error {
		now := s.now()
		p, _, err := repo.LockOrCreate(ctx, userID, moduleID, now)
		if err != nil {
			return err
		}
		p.Touch(now)

		if persist != nil {
			if err := persist(repo); err != nil {
				return err
			}
		}
		if _, err := repo.AddCompletedExercise(ctx, userID, moduleID, exerciseID); err != nil {
			return err
		}
		p.TimeSpent += timeSpent
		if err := loadCompletion(ctx, repo, p, m); err != nil {
			return err
		}
		if err := repo.Save(ctx, p); err != nil {
			return err
		}
		progress = p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return progress, nil
}

// GetProgress 返回进度以及该模块下的书签和笔记
func (s *ProgressService) GetProgress(ctx context.Context, userID, moduleID string) (*model.UserModuleProgress, error) {
	m, err := s.catalog.Module(moduleID)
	if err != nil {
		return nil, err
	}

	p, err := s.progressRepo.FindByUserAndModule(ctx, userID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s module %s: %w", userID, moduleID, util.ErrProgressNotFound)
		}
		return nil, err
	}
	if err := loadCompletion(ctx, s.progressRepo, p, m); err != nil {
		return nil, err
	}

	if s.annotations != nil {
		p.Bookmarks = s.annotations.ListBookmarks(ctx, userID, moduleID)
		p.Notes = s.annotations.ListNotes(ctx, userID, moduleID)
	}
	return p, nil
}

// GetAllProgress 每次读取都按目录重新计算百分比。目录中已不存在的模块会被跳过。
func (s *ProgressService) GetAllProgress(ctx context.Context, userID string) ([]model.UserModuleProgress, error) {
	list, err := s.progressRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sections, exercises, err := s.progressRepo.CompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserModuleProgress, 0, len(list))
	for _, p := range list {
		m, err := s.catalog.Module(p.ModuleID)
		if err != nil {
			logger.Log.Warn("Progress references unknown module", zap.String("userId", userID), zap.String("moduleId", p.ModuleID))
			continue
		}
		p.CompletedSections = m.KnownSections(sections[p.ModuleID])
		p.CompletedExercises = m.KnownExercises(exercises[p.ModuleID])
		p.Recompute(m.TotalSections())
		out = append(out, p)
	}
	return out, nil
}
