package service

import (
	"context"
	"fmt"
	"time"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/internal/util"
	"wellcoach_backend/pkg/logger"
	"wellcoach_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type ResourceService struct {
	catalog      catalog.Catalog
	downloadRepo *repository.ResourceDownloadRepository
	now          func() time.Time
}

func NewResourceService(cat catalog.Catalog, downloadRepo *repository.ResourceDownloadRepository) *ResourceService {
	return &ResourceService{catalog: cat, downloadRepo: downloadRepo, now: time.Now}
}

// TrackResourceDownload 返回资源信息；埋点写入失败只记录日志
func (s *ResourceService) TrackResourceDownload(ctx context.Context, userID, moduleID, resourceID string) (*model.ModuleResource, error) {
	m, err := s.catalog.Module(moduleID)
	if err != nil {
		return nil, err
	}
	res, ok := m.FindResource(resourceID)
	if !ok {
		return nil, fmt.Errorf("resource %q of module %q: %w", resourceID, moduleID, util.ErrResourceNotFound)
	}

	monitoring.ResourceDownloads.WithLabelValues(moduleID, resourceID).Inc()
	err = s.downloadRepo.Create(ctx, &model.ResourceDownload{
		UserID:       userID,
		ModuleID:     moduleID,
		ResourceID:   resourceID,
		DownloadedAt: s.now(),
	})
	if err != nil {
		logger.Log.Warn("Failed to track resource download",
			zap.String("userId", userID),
			zap.String("moduleId", moduleID),
			zap.String("resourceId", resourceID),
			zap.Error(err))
	}
	return res, nil
}
