package controller

import (
	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/service"
	"wellcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TrainingController struct {
	catalog   catalog.Catalog
	progress  *service.ProgressService
	overview  *service.OverviewService
	resources *service.ResourceService
}

func NewTrainingController(cat catalog.Catalog, progress *service.ProgressService, overview *service.OverviewService, resources *service.ResourceService) *TrainingController {
	return &TrainingController{
		catalog:   cat,
		progress:  progress,
		overview:  overview,
		resources: resources,
	}
}

// ListModules godoc
// @Summary 训练模块列表
// @Tags 训练模块
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TrainingModule}
// @Router /api/modules [get]
func (c *TrainingController) ListModules(ctx *gin.Context) {
	util.Success(ctx, c.catalog.Modules())
}

// GetModule godoc
// @Summary 训练模块详情
// @Tags 训练模块
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=model.TrainingModule}
// @Router /api/modules/{moduleId} [get]
func (c *TrainingController) GetModule(ctx *gin.Context) {
	m, err := c.catalog.Module(ctx.Param("moduleId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

// StartModule godoc
// @Summary 开始学习模块
// @Tags 训练进度
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=model.UserModuleProgress}
// @Router /api/modules/{moduleId}/start [post]
func (c *TrainingController) StartModule(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	progress, err := c.progress.StartModule(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// CompleteSection godoc
// @Summary 标记小节完成
// @Tags 训练进度
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param sectionId path string true "小节ID"
// @Success 200 {object} util.Response{data=model.UserModuleProgress}
// @Router /api/modules/{moduleId}/sections/{sectionId}/complete [post]
func (c *TrainingController) CompleteSection(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	progress, err := c.progress.CompleteSection(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), ctx.Param("sectionId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetProgress godoc
// @Summary 获取模块进度（含书签和笔记）
// @Tags 训练进度
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=model.UserModuleProgress}
// @Router /api/modules/{moduleId}/progress [get]
func (c *TrainingController) GetProgress(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	progress, err := c.progress.GetProgress(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetAllProgress godoc
// @Summary 获取全部模块进度
// @Tags 训练进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.UserModuleProgress}
// @Router /api/progress [get]
func (c *TrainingController) GetAllProgress(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	list, err := c.progress.GetAllProgress(ctx.Request.Context(), user.UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetOverview godoc
// @Summary 学习概览
// @Tags 训练进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.ProgressOverview}
// @Router /api/progress/overview [get]
func (c *TrainingController) GetOverview(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	ov, err := c.overview.Overview(ctx.Request.Context(), user.UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, ov)
}

// DownloadResource godoc
// @Summary 记录资源下载并返回资源地址
// @Tags 训练模块
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param resourceId path string true "资源ID"
// @Success 200 {object} util.Response{data=model.ModuleResource}
// @Router /api/modules/{moduleId}/resources/{resourceId}/download [post]
func (c *TrainingController) DownloadResource(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	res, err := c.resources.TrackResourceDownload(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), ctx.Param("resourceId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
