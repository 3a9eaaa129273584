package controller

import (
	"wellcoach_backend/internal/service"
	"wellcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnnotationController struct {
	service *service.AnnotationService
}

func NewAnnotationController(s *service.AnnotationService) *AnnotationController {
	return &AnnotationController{service: s}
}

// ListModuleBookmarks godoc
// @Summary 模块书签
// @Tags 书签笔记
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=[]model.ModuleBookmark}
// @Router /api/modules/{moduleId}/bookmarks [get]
func (c *AnnotationController) ListModuleBookmarks(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.service.ListBookmarks(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId")))
}

// ListBookmarks godoc
// @Summary 全部书签
// @Tags 书签笔记
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ModuleBookmark}
// @Router /api/bookmarks [get]
func (c *AnnotationController) ListBookmarks(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.service.ListBookmarks(ctx.Request.Context(), user.UserID(), ""))
}

// AddBookmark godoc
// @Summary 添加书签
// @Tags 书签笔记
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param body body service.BookmarkInput true "书签"
// @Success 201 {object} util.Response{data=model.ModuleBookmark}
// @Router /api/modules/{moduleId}/bookmarks [post]
func (c *AnnotationController) AddBookmark(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.BookmarkInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	bookmark, err := c.service.AddBookmark(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, bookmark)
}

// RemoveBookmark godoc
// @Summary 删除书签
// @Tags 书签笔记
// @Security ApiKeyAuth
// @Param id path string true "书签ID"
// @Success 200 {object} util.Response
// @Router /api/bookmarks/{id} [delete]
func (c *AnnotationController) RemoveBookmark(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	if err := c.service.RemoveBookmark(ctx.Request.Context(), user.UserID(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListNotes godoc
// @Summary 模块笔记
// @Tags 书签笔记
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=[]model.ModuleNote}
// @Router /api/modules/{moduleId}/notes [get]
func (c *AnnotationController) ListNotes(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.service.ListNotes(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId")))
}

// AddNote godoc
// @Summary 添加笔记
// @Tags 书签笔记
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param body body service.NoteInput true "笔记"
// @Success 201 {object} util.Response{data=model.ModuleNote}
// @Router /api/modules/{moduleId}/notes [post]
func (c *AnnotationController) AddNote(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.NoteInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.service.AddNote(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, note)
}

// UpdateNote godoc
// @Summary 修改笔记
// @Tags 书签笔记
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "笔记ID"
// @Param body body service.NoteUpdate true "修改内容"
// @Success 200 {object} util.Response{data=model.ModuleNote}
// @Router /api/notes/{id} [put]
func (c *AnnotationController) UpdateNote(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.NoteUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.service.UpdateNote(ctx.Request.Context(), user.UserID(), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, note)
}

// DeleteNote godoc
// @Summary 删除笔记
// @Tags 书签笔记
// @Security ApiKeyAuth
// @Param id path string true "笔记ID"
// @Success 200 {object} util.Response
// @Router /api/notes/{id} [delete]
func (c *AnnotationController) DeleteNote(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	if err := c.service.DeleteNote(ctx.Request.Context(), user.UserID(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
