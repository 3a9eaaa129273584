package controller

import (
	"errors"
	"net/http"

	"wellcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 把业务错误映射为 HTTP 状态码，未知错误记录日志后返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrModuleNotFound),
		errors.Is(err, util.ErrSectionNotFound),
		errors.Is(err, util.ErrResourceNotFound),
		errors.Is(err, util.ErrProgressNotFound),
		errors.Is(err, util.ErrCertificateNotFound),
		errors.Is(err, util.ErrAnnotationNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrPrerequisitesNotMet),
		errors.Is(err, util.ErrCertificateInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrCertificateNotAllowed):
		util.UnprocessableEntity(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// currentUser 未登录时直接写 401
func currentUser(ctx *gin.Context) (*util.Claims, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return user, true
}
