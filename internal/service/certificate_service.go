package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/internal/util"
	"wellcoach_backend/pkg/logger"
	"wellcoach_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CertificateService struct {
	catalog      catalog.Catalog
	progressRepo *repository.ProgressRepository
	certRepo     *repository.CertificateRepository
	storage      StorageProvider
	renderer     *CertificateRenderer
	redis        *redis.Client
	prefix       string
	lockTTL      time.Duration
	now          func() time.Time
}

// NewCertificateService storage 和 rdb 可以为 nil：不生成图片、不使用 Redis 去重
func NewCertificateService(cat catalog.Catalog, progressRepo *repository.ProgressRepository, certRepo *repository.CertificateRepository,
	storage StorageProvider, renderer *CertificateRenderer, rdb *redis.Client, cfg *config.TrainingConfig) *CertificateService {
	prefix := cfg.CertificatePrefix
	if prefix == "" {
		prefix = "WT"
	}
	ttl := cfg.IssueLockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &CertificateService{
		catalog:      cat,
		progressRepo: progressRepo,
		certRepo:     certRepo,
		storage:      storage,
		renderer:     renderer,
		redis:        rdb,
		prefix:       prefix,
		lockTTL:      ttl,
		now:          time.Now,
	}
}

// CertificateVerification 公开校验接口返回的信息，不包含用户 id
type CertificateVerification struct {
	CertificateNumber string    `json:"certificateNumber"`
	ModuleID          string    `json:"moduleId"`
	ModuleTitle       string    `json:"moduleTitle"`
	RecipientName     string    `json:"recipientName,omitempty"`
	IssuedAt          time.Time `json:"issuedAt"`
	Valid             bool      `json:"valid"`
}

// newNumber 格式 <前缀>-<毫秒时间戳>-<8 位大写十六进制>
func (s *CertificateService) newNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", s.prefix, now.UnixMilli(), suffix)
}

func (s *CertificateService) existing(ctx context.Context, userID, moduleID string) (*model.ModuleCertificate, error) {
	cert, err := s.certRepo.FindByUserAndModule(ctx, userID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cert, nil
}

// acquireIssueLock Redis 不可用时不加锁，由唯一索引兜底
func (s *CertificateService) acquireIssueLock(ctx context.Context, userID, moduleID string) (func(), bool) {
	noop := func() {}
	if s.redis == nil {
		return noop, true
	}
	key := fmt.Sprintf("certificate:issue:%s:%s", userID, moduleID)
	ok, err := s.redis.SetNX(ctx, key, 1, s.lockTTL).Result()
	if err != nil {
		logger.Log.Warn("Certificate issue lock unavailable", zap.String("key", key), zap.Error(err))
		return noop, true
	}
	if !ok {
		return noop, false
	}
	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			logger.Log.Warn("Failed to release certificate issue lock", zap.String("key", key), zap.Error(err))
		}
	}, true
}

// GenerateCertificate 模块已完成时签发证书；同一 (用户, 模块) 重复调用返回已有证书
func (s *CertificateService) GenerateCertificate(ctx context.Context, userID, moduleID, recipientName string) (*model.ModuleCertificate, error) {
	ctx, span := startSpan(ctx, "certificate.Generate", userID, moduleID)
	defer span.End()

	m, err := s.catalog.Module(moduleID)
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			return nil, fmt.Errorf("module %q: %w", moduleID, util.ErrCertificateNotAllowed)
		}
		return nil, err
	}

	if cert, err := s.existing(ctx, userID, moduleID); err != nil || cert != nil {
		return cert, err
	}

	progress, err := s.progressRepo.FindByUserAndModule(ctx, userID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module %q: %w", moduleID, util.ErrCertificateNotAllowed)
		}
		return nil, err
	}
	if progress.Status != model.StatusCompleted {
		return nil, fmt.Errorf("module %q is %s: %w", moduleID, progress.Status, util.ErrCertificateNotAllowed)
	}

	release, acquired := s.acquireIssueLock(ctx, userID, moduleID)
	if !acquired {
		// 另一个请求正在签发，已写入则直接返回
		if cert, err := s.existing(ctx, userID, moduleID); err != nil || cert != nil {
			return cert, err
		}
		return nil, util.ErrCertificateInProgress
	}
	defer release()

	if err := loadCompletion(ctx, s.progressRepo, progress, m); err != nil {
		return nil, err
	}

	now := s.now()
	cert := &model.ModuleCertificate{
		UserID:            userID,
		ModuleID:          moduleID,
		CertificateNumber: s.newNumber(now),
		IssuedAt:          now,
		Metadata: datatypes.NewJSONType(model.CertificateMetadata{
			ModuleTitle:        m.Title,
			ModuleNumber:       m.Number,
			RecipientName:      strings.TrimSpace(recipientName),
			CompletionTime:     completionSeconds(progress),
			StartedAt:          progress.StartedAt,
			CompletedAt:        progress.CompletedAt,
			ExercisesCompleted: len(progress.CompletedExercises),
			TotalExercises:     m.TotalExercises(),
			SectionsCompleted:  len(progress.CompletedSections),
			TotalSections:      m.TotalSections(),
		}),
	}

	created, err := s.certRepo.CreateIfAbsent(ctx, cert)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !created {
		// 并发签发时以先写入的为准
		return s.certRepo.FindByUserAndModule(ctx, userID, moduleID)
	}

	monitoring.CertificatesIssued.WithLabelValues(moduleID).Inc()
	logger.Log.Info("Certificate issued",
		zap.String("userId", userID),
		zap.String("moduleId", moduleID),
		zap.String("number", cert.CertificateNumber))

	s.storeImage(ctx, cert)
	return cert, nil
}

// completionSeconds 优先使用累计练习用时，没有时使用开始到完成的时长
func completionSeconds(p *model.UserModuleProgress) int {
	if p.TimeSpent > 0 {
		return p.TimeSpent
	}
	if p.StartedAt != nil && p.CompletedAt != nil && p.CompletedAt.After(*p.StartedAt) {
		return int(p.CompletedAt.Sub(*p.StartedAt).Seconds())
	}
	return 0
}

// storeImage 生成并上传证书图片，失败只记录日志
func (s *CertificateService) storeImage(ctx context.Context, cert *model.ModuleCertificate) {
	if s.storage == nil || s.renderer == nil {
		return
	}
	png, err := s.renderer.Render(cert)
	if err != nil {
		logger.Log.Error("Failed to render certificate", zap.String("id", cert.ID), zap.Error(err))
		return
	}

	key := fmt.Sprintf("%s/%s/%s.png", util.CertificateObjectPrefix, cert.UserID, cert.CertificateNumber)
	url, err := s.storage.Upload(ctx, key, bytes.NewReader(png), int64(len(png)), util.MimePNG)
	if err != nil {
		logger.Log.Error("Failed to upload certificate image", zap.String("id", cert.ID), zap.Error(err))
		return
	}
	if err := s.certRepo.UpdateFileURL(ctx, cert.ID, url); err != nil {
		logger.Log.Error("Failed to save certificate image url", zap.String("id", cert.ID), zap.Error(err))
		// 没有记录指向的图片直接删除
		if err := s.storage.Delete(ctx, key); err != nil {
			logger.Log.Warn("Failed to remove orphaned certificate image", zap.String("key", key), zap.Error(err))
		}
		return
	}
	cert.FileURL = url
}

func (s *CertificateService) ListCertificates(ctx context.Context, userID string) ([]model.ModuleCertificate, error) {
	list, err := s.certRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.ModuleCertificate{}
	}
	return list, nil
}

// RenderCertificate 按需重新生成 PNG，只允许证书持有人下载
func (s *CertificateService) RenderCertificate(ctx context.Context, userID, certificateID string) (*model.ModuleCertificate, []byte, error) {
	cert, err := s.certRepo.FindByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrCertificateNotFound
		}
		return nil, nil, err
	}
	if cert.UserID != userID {
		return nil, nil, util.ErrCertificateNotFound
	}
	png, err := s.renderer.Render(cert)
	if err != nil {
		return nil, nil, err
	}
	return cert, png, nil
}

func (s *CertificateService) VerifyCertificate(ctx context.Context, number string) (*CertificateVerification, error) {
	cert, err := s.certRepo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	meta := cert.Metadata.Data()
	return &CertificateVerification{
		CertificateNumber: cert.CertificateNumber,
		ModuleID:          cert.ModuleID,
		ModuleTitle:       meta.ModuleTitle,
		RecipientName:     meta.RecipientName,
		IssuedAt:          cert.IssuedAt,
		Valid:             true,
	}, nil
}
