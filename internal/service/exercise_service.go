package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/pkg/logger"
	"wellcoach_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type SubmitExerciseRequest struct {
	Responses map[string]any `json:"responses" binding:"required"`
	SectionID string         `json:"sectionId"`
	TimeSpent *int           `json:"timeSpent"`
}

type ExerciseService struct {
	catalog        catalog.Catalog
	submissionRepo *repository.ExerciseSubmissionRepository
	progress       *ProgressService
	scoring        *ScoringRegistry
	feedback       *FeedbackPolicy
	now            func() time.Time
}

func NewExerciseService(cat catalog.Catalog, submissionRepo *repository.ExerciseSubmissionRepository, progress *ProgressService, scoring *ScoringRegistry, feedback *FeedbackPolicy) *ExerciseService {
	return &ExerciseService{
		catalog:        cat,
		submissionRepo: submissionRepo,
		progress:       progress,
		scoring:        scoring,
		feedback:       feedback,
		now:            time.Now,
	}
}

// SubmitExercise 打分、保存提交并记录练习完成。练习不在目录中时 sectionId 留空继续处理。
func (s *ExerciseService) SubmitExercise(ctx context.Context, userID, moduleID, exerciseID string, req SubmitExerciseRequest) (*model.ExerciseSubmission, error) {
	ctx, span := startSpan(ctx, "exercise.Submit", userID, moduleID)
	defer span.End()

	exercise, section, found, err := catalog.FindExercise(s.catalog, moduleID, exerciseID)
	if err != nil {
		return nil, err
	}

	responses := req.Responses
	if responses == nil {
		responses = map[string]any{}
	}

	sectionID := req.SectionID
	var exerciseType model.ExerciseType
	if found {
		if sectionID == "" {
			sectionID = section.ID
		}
		exerciseType = exercise.Type
	} else {
		exercise = nil
		logger.Log.Debug("Submission for exercise outside catalog", zap.String("moduleId", moduleID), zap.String("exerciseId", exerciseID))
	}

	score := s.scoring.Score(exercise, responses)
	submission := &model.ExerciseSubmission{
		UserID:       userID,
		ModuleID:     moduleID,
		SectionID:    sectionID,
		ExerciseID:   exerciseID,
		ExerciseType: exerciseType,
		Responses:    datatypes.JSONMap(responses),
		IsComplete:   score == 100,
		SubmittedAt:  s.now(),
		TimeSpent:    resolveTimeSpent(req.TimeSpent, responses),
		Score:        score,
		Feedback:     s.feedback.Message(score),
	}

	// 提交记录和练习完成一起提交，避免只留下提交而进度未更新
	_, err = s.progress.completeExercise(ctx, userID, moduleID, exerciseID, submission, func(repo *repository.ProgressRepository) error {
		return s.submissionRepo.WithTx(repo.DB).Create(ctx, submission)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	typeLabel := string(exerciseType)
	if typeLabel == "" {
		typeLabel = "unknown"
	}
	monitoring.ExerciseSubmissions.WithLabelValues(typeLabel).Inc()
	monitoring.ExerciseScores.WithLabelValues(typeLabel).Observe(float64(score))

	return submission, nil
}

func (s *ExerciseService) ListSubmissions(ctx context.Context, userID, moduleID, exerciseID string) ([]model.ExerciseSubmission, error) {
	if _, err := s.catalog.Module(moduleID); err != nil {
		return nil, err
	}
	list, err := s.submissionRepo.FindByUserAndExercise(ctx, userID, moduleID, exerciseID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.ExerciseSubmission{}
	}
	return list, nil
}

// resolveTimeSpent 显式传入的值优先，其次取 responses.timeSpent，单位秒
func resolveTimeSpent(explicit *int, responses map[string]any) int {
	if explicit != nil {
		return max(*explicit, 0)
	}
	switch v := responses["timeSpent"].(type) {
	case float64:
		return max(int(math.Round(v)), 0)
	case int:
		return max(v, 0)
	case int64:
		return max(int(v), 0)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return max(int(math.Round(f)), 0)
		}
	}
	return 0
}
