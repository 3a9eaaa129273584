package service

import (
	"context"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

type OverviewService struct {
	catalog        catalog.Catalog
	progress       *ProgressService
	certRepo       *repository.CertificateRepository
	submissionRepo *repository.ExerciseSubmissionRepository
}

func NewOverviewService(cat catalog.Catalog, progress *ProgressService, certRepo *repository.CertificateRepository, submissionRepo *repository.ExerciseSubmissionRepository) *OverviewService {
	return &OverviewService{
		catalog:        cat,
		progress:       progress,
		certRepo:       certRepo,
		submissionRepo: submissionRepo,
	}
}

// Overview 并发读取进度、证书和提交数后汇总
func (s *OverviewService) Overview(ctx context.Context, userID string) (*model.ProgressOverview, error) {
	var (
		progress     []model.UserModuleProgress
		certificates []model.ModuleCertificate
		submissions  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, err = s.progress.GetAllProgress(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		certificates, err = s.certRepo.FindByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		submissions, err = s.submissionRepo.CountByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summarize(s.catalog.Modules(), progress, len(certificates), int(submissions)), nil
}

func summarize(modules []model.TrainingModule, progress []model.UserModuleProgress, certificates, submissions int) *model.ProgressOverview {
	byModule := make(map[string]model.UserModuleProgress, len(progress))
	for _, p := range progress {
		byModule[p.ModuleID] = p
	}

	ov := &model.ProgressOverview{
		TotalModules:       len(modules),
		CertificatesIssued: certificates,
		ExercisesSubmitted: submissions,
	}
	for _, m := range modules {
		if m.Required {
			ov.RequiredModules++
		}
		p, ok := byModule[m.ID]
		status := model.StatusNotStarted
		if ok {
			status = p.Status
			ov.TotalTimeSpent += p.TimeSpent
		}
		switch status {
		case model.StatusCompleted:
			ov.Completed++
			if m.Required {
				ov.RequiredCompleted++
			}
		case model.StatusInProgress:
			ov.InProgress++
		default:
			ov.NotStarted++
		}
	}
	ov.CompletionPercentage = model.ProgressPercentage(ov.RequiredCompleted, ov.RequiredModules)
	return ov
}
