package controller

import (
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	Navigator   *service.Navigator
}

func NewAuthController(authService *service.AuthService, navigator *service.Navigator) *AuthController {
	return &AuthController{
		AuthService: authService,
		Navigator:   navigator,
	}
}

// ResetPasswordRequest 找回密码请求
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// Root godoc
// @Summary 根路由
// @Description 按当前角色跳转到对应的仪表盘，未登录跳转 /login
// @Tags 认证
// @Produce json
// @Success 200 {object} util.Response
// @Router / [get]
func (c *AuthController) Root(ctx *gin.Context) {
	home := c.Navigator.HomeFor(util.GetAuthFromContext(ctx))
	if util.WantsJSON(ctx) {
		util.SuccessRedirect(ctx, nil, home)
		return
	}
	ctx.Redirect(http.StatusFound, home)
}

// Status godoc
// @Summary 当前登录状态
// @Description 返回 isAuthenticated 与角色，以及角色对应的首页
// @Tags 认证
// @Produce json
// @Success 200 {object} util.Response{data=model.Auth}
// @Router /auth/status [get]
func (c *AuthController) Status(ctx *gin.Context) {
	auth := util.GetAuthFromContext(ctx)
	util.SuccessRedirect(ctx, auth, c.Navigator.HomeFor(auth))
}

// Login godoc
// @Summary 登录
// @Description 向上游登录并把凭据保存到门户会话
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body model.LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.LoginResult}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response "未知角色"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req model.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sess := util.GetSessionFromContext(ctx)
	client := util.GetAPIFromContext(ctx)
	if sess == nil || client == nil {
		util.InternalServerError(ctx)
		return
	}

	result, err := c.AuthService.Login(ctx.Request.Context(), client, sess, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	// 登录后换发会话 ID
	if err := util.RotateSession(ctx); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, result, result.Redirect)
}

// Logout godoc
// @Summary 登出
// @Description 通知上游登出并清空会话
// @Tags 认证
// @Produce json
// @Success 200 {object} util.Response
// @Router /logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	sess := util.GetSessionFromContext(ctx)
	client := util.GetAPIFromContext(ctx)
	if sess == nil || client == nil {
		util.SuccessRedirect(ctx, nil, service.RouteLogin)
		return
	}
	redirect := c.AuthService.Logout(ctx.Request.Context(), client, sess)
	util.EndSession(ctx)
	util.SuccessRedirect(ctx, nil, redirect)
}

// RegisterFormador godoc
// @Summary 注册讲师
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body model.RegisterFormadorRequest true "讲师信息"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /register-formador [post]
func (c *AuthController) RegisterFormador(ctx *gin.Context) {
	var req model.RegisterFormadorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.AuthService.RegisterFormador(ctx.Request.Context(), util.GetAPIFromContext(ctx), req); err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"message": "Pedido de registo enviado."})
}

// RequestPasswordReset godoc
// @Summary 找回密码
// @Description 邮箱为空时直接返回 400，不访问上游
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "邮箱"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /reset-password [post]
func (c *AuthController) RequestPasswordReset(ctx *gin.Context) {
	var req ResetPasswordRequest
	_ = ctx.ShouldBindJSON(&req)

	message, err := c.AuthService.RequestPasswordReset(ctx.Request.Context(), util.GetAPIFromContext(ctx), req.Email)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": message})
}
