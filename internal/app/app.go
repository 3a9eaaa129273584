package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/controller"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/internal/service"
	"wellcoach_backend/internal/util"
	"wellcoach_backend/pkg/configwatcher"
	"wellcoach_backend/pkg/database"
	"wellcoach_backend/pkg/logger"
	"wellcoach_backend/pkg/monitoring"
	"wellcoach_backend/pkg/security"
	"wellcoach_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Catalog         catalog.Catalog
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	progress           *repository.ProgressRepository
	exerciseSubmission *repository.ExerciseSubmissionRepository
	certificate        *repository.CertificateRepository
	bookmark           *repository.BookmarkRepository
	note               *repository.NoteRepository
	resourceDownload   *repository.ResourceDownloadRepository
}

type services struct {
	storage     service.StorageProvider
	feedback    *service.FeedbackPolicy
	scoring     *service.ScoringRegistry
	annotation  *service.AnnotationService
	progress    *service.ProgressService
	exercise    *service.ExerciseService
	certificate *service.CertificateService
	overview    *service.OverviewService
	resource    *service.ResourceService
}

type controllers struct {
	training    *controller.TrainingController
	exercise    *controller.ExerciseController
	certificate *controller.CertificateController
	annotation  *controller.AnnotationController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		progress:           repository.NewProgressRepository(db),
		exerciseSubmission: repository.NewExerciseSubmissionRepository(db),
		certificate:        repository.NewCertificateRepository(db),
		bookmark:           repository.NewBookmarkRepository(db),
		note:               repository.NewNoteRepository(db),
		resourceDownload:   repository.NewResourceDownloadRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageProvider(&cfg.Storage)
	s.feedback = service.NewFeedbackPolicy(cfg.Training.FeedbackBands)
	s.scoring = service.NewScoringRegistry()
	s.annotation = service.NewAnnotationService(a.Catalog, repos.bookmark, repos.note)
	s.progress = service.NewProgressService(a.Catalog, repos.progress, s.annotation, &cfg.Training)
	s.exercise = service.NewExerciseService(a.Catalog, repos.exerciseSubmission, s.progress, s.scoring, s.feedback)
	s.certificate = service.NewCertificateService(a.Catalog, repos.progress, repos.certificate,
		s.storage, service.NewCertificateRenderer(), rdb, &cfg.Training)
	s.overview = service.NewOverviewService(a.Catalog, s.progress, repos.certificate, repos.exerciseSubmission)
	s.resource = service.NewResourceService(a.Catalog, repos.resourceDownload)

	// 反馈文案支持热更新
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.feedback.Update(newCfg.Training.FeedbackBands)
		logger.Log.Info("Feedback bands reloaded", zap.Int("bands", len(newCfg.Training.FeedbackBands)))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		training:    controller.NewTrainingController(a.Catalog, s.progress, s.overview, s.resource),
		exercise:    controller.NewExerciseController(s.exercise),
		certificate: controller.NewCertificateController(s.certificate),
		annotation:  controller.NewAnnotationController(s.annotation),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(cfg.Tracing.ServiceName))
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 使用已建立的连接组装应用，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, cat catalog.Catalog) *App {
	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Catalog: cat,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// NewApp 初始化日志、数据库、Redis、追踪和模块目录
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	cat, err := catalog.Load(cfg.Training.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Catalog loaded", zap.Int("modules", len(cat.Modules())))

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer(context.Background(), &cfg.Tracing)
		if err != nil {
			return nil, err
		}
	}

	app := New(cfg, db, rdb, cat)
	app.tracer = tp
	return app, nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Config.ConfigFile != "" {
		go func() {
			err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
	_ = logger.Log.Sync()
	return nil
}
