package controller

import (
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	ProfileService *service.ProfileService
}

func NewProfileController(profileService *service.ProfileService) *ProfileController {
	return &ProfileController{ProfileService: profileService}
}

// Get godoc
// @Summary 个人资料
// @Description 已完成课程、加权平均进度与培训时长
// @Tags 个人资料
// @Produce json
// @Success 200 {object} util.Response{data=service.ProfileView}
// @Router /perfil [get]
func (c *ProfileController) Get(ctx *gin.Context) {
	view, err := c.ProfileService.Load(ctx.Request.Context(), util.GetAPIFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ResetPassword godoc
// @Summary 重置密码
// @Description 向资料中的邮箱发送重置邮件
// @Tags 个人资料
// @Produce json
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "邮箱不可用"
// @Router /perfil/reset-password [post]
func (c *ProfileController) ResetPassword(ctx *gin.Context) {
	message, err := c.ProfileService.RequestPasswordReset(ctx.Request.Context(), util.GetAPIFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": message})
}
