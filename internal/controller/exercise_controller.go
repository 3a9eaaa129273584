package controller

import (
	"wellcoach_backend/internal/service"
	"wellcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExerciseController struct {
	service *service.ExerciseService
}

func NewExerciseController(s *service.ExerciseService) *ExerciseController {
	return &ExerciseController{service: s}
}

// SubmitExercise godoc
// @Summary 提交练习
// @Description 保存回答、打分并返回反馈，同时记录练习完成
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param exerciseId path string true "练习ID"
// @Param body body service.SubmitExerciseRequest true "回答"
// @Success 201 {object} util.Response{data=model.ExerciseSubmission}
// @Router /api/modules/{moduleId}/exercises/{exerciseId}/submissions [post]
func (c *ExerciseController) SubmitExercise(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.SubmitExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.service.SubmitExercise(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), ctx.Param("exerciseId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, submission)
}

// ListSubmissions godoc
// @Summary 练习提交历史
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param exerciseId path string true "练习ID"
// @Success 200 {object} util.Response{data=[]model.ExerciseSubmission}
// @Router /api/modules/{moduleId}/exercises/{exerciseId}/submissions [get]
func (c *ExerciseController) ListSubmissions(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	list, err := c.service.ListSubmissions(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), ctx.Param("exerciseId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
