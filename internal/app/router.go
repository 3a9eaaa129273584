package app

import (
	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/middleware"
	"wellcoach_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerTrainingRoutes(authGroup, c)
		a.registerCertificateRoutes(authGroup, c)
		a.registerAnnotationRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/public/certificates/:number", c.certificate.VerifyCertificate)
	}
}

func (a *App) registerTrainingRoutes(r *gin.RouterGroup, c *controllers) {
	modules := r.Group("/modules")
	{
		modules.GET("", c.training.ListModules)
		modules.GET("/:moduleId", c.training.GetModule)
		modules.POST("/:moduleId/start", c.training.StartModule)
		modules.POST("/:moduleId/sections/:sectionId/complete", c.training.CompleteSection)
		modules.GET("/:moduleId/progress", c.training.GetProgress)
		modules.POST("/:moduleId/exercises/:exerciseId/submissions", c.exercise.SubmitExercise)
		modules.GET("/:moduleId/exercises/:exerciseId/submissions", c.exercise.ListSubmissions)
		modules.POST("/:moduleId/resources/:resourceId/download", c.training.DownloadResource)
	}

	r.GET("/progress", c.training.GetAllProgress)
	r.GET("/progress/overview", c.training.GetOverview)
}

func (a *App) registerCertificateRoutes(r *gin.RouterGroup, c *controllers) {
	r.POST("/modules/:moduleId/certificate", c.certificate.GenerateCertificate)
	r.GET("/certificates", c.certificate.ListCertificates)
	r.GET("/certificates/:id/image", c.certificate.DownloadImage)
}

func (a *App) registerAnnotationRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/modules/:moduleId/bookmarks", c.annotation.ListModuleBookmarks)
	r.POST("/modules/:moduleId/bookmarks", c.annotation.AddBookmark)
	r.GET("/bookmarks", c.annotation.ListBookmarks)
	r.DELETE("/bookmarks/:id", c.annotation.RemoveBookmark)

	r.GET("/modules/:moduleId/notes", c.annotation.ListNotes)
	r.POST("/modules/:moduleId/notes", c.annotation.AddNote)
	r.PUT("/notes/:id", c.annotation.UpdateNote)
	r.DELETE("/notes/:id", c.annotation.DeleteNote)
}
