package controller

import (
	"fmt"
	"net/http"

	"wellcoach_backend/internal/service"
	"wellcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	service *service.CertificateService
}

func NewCertificateController(s *service.CertificateService) *CertificateController {
	return &CertificateController{service: s}
}

type GenerateCertificateRequest struct {
	RecipientName string `json:"recipientName"`
}

// GenerateCertificate godoc
// @Summary 签发模块证书
// @Description 模块完成后签发，重复调用返回同一张证书
// @Tags 证书
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param moduleId path string true "模块ID"
// @Param body body GenerateCertificateRequest false "证书姓名"
// @Success 200 {object} util.Response{data=model.ModuleCertificate}
// @Router /api/modules/{moduleId}/certificate [post]
func (c *CertificateController) GenerateCertificate(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req GenerateCertificateRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	if req.RecipientName == "" {
		req.RecipientName = user.Name
	}

	cert, err := c.service.GenerateCertificate(ctx.Request.Context(), user.UserID(), ctx.Param("moduleId"), req.RecipientName)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}

// ListCertificates godoc
// @Summary 我的证书
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ModuleCertificate}
// @Router /api/certificates [get]
func (c *CertificateController) ListCertificates(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	list, err := c.service.ListCertificates(ctx.Request.Context(), user.UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// DownloadImage godoc
// @Summary 下载证书图片
// @Tags 证书
// @Produce png
// @Security ApiKeyAuth
// @Param id path string true "证书ID"
// @Router /api/certificates/{id}/image [get]
func (c *CertificateController) DownloadImage(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	cert, png, err := c.service.RenderCertificate(ctx.Request.Context(), user.UserID(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, cert.CertificateNumber))
	ctx.Data(http.StatusOK, util.MimePNG, png)
}

// VerifyCertificate godoc
// @Summary 校验证书编号
// @Tags 证书
// @Produce json
// @Param number path string true "证书编号"
// @Success 200 {object} util.Response{data=service.CertificateVerification}
// @Router /api/public/certificates/{number} [get]
func (c *CertificateController) VerifyCertificate(ctx *gin.Context) {
	v, err := c.service.VerifyCertificate(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}
