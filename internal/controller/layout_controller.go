package controller

import (
	"formar_portal/internal/service"
	"formar_portal/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LayoutController 外壳：导航栏、侧边栏菜单、搜索框与实时通道
type LayoutController struct {
	LayoutService *service.LayoutService
	Hub           *service.ShellHub
}

func NewLayoutController(layoutService *service.LayoutService, hub *service.ShellHub) *LayoutController {
	return &LayoutController{LayoutService: layoutService, Hub: hub}
}

type SearchSubmitRequest struct {
	Term string `json:"term"`
}

// Layout godoc
// @Summary 外壳布局
// @Description 根据当前路径与角色返回是否显示导航栏以及侧边栏菜单
// @Tags 布局
// @Produce json
// @Param path query string false "当前页面路径"
// @Success 200 {object} util.Response{data=service.LayoutView}
// @Router /layout [get]
func (c *LayoutController) Layout(ctx *gin.Context) {
	path := ctx.DefaultQuery("path", "/")
	util.Success(ctx, c.LayoutService.Layout(util.GetAuthFromContext(ctx), path))
}

// Suggest godoc
// @Summary 搜索联想
// @Description 少于两个字符返回空列表
// @Tags 布局
// @Produce json
// @Param term query string true "关键字"
// @Success 200 {object} util.Response
// @Router /layout/search [get]
func (c *LayoutController) Suggest(ctx *gin.Context) {
	cursos, err := c.LayoutService.Suggest(ctx.Request.Context(), util.GetAPIFromContext(ctx), ctx.Query("term"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, cursos)
}

// SubmitSearch godoc
// @Summary 提交搜索
// @Description 有结果时跳转到第一个课程，否则跳转到搜索页
// @Tags 布局
// @Accept json
// @Produce json
// @Param body body SearchSubmitRequest true "关键字"
// @Success 200 {object} util.Response
// @Router /layout/search [post]
func (c *LayoutController) SubmitSearch(ctx *gin.Context) {
	var req SearchSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cursos, err := c.LayoutService.Suggest(ctx.Request.Context(), util.GetAPIFromContext(ctx), req.Term)
	if err != nil {
		respondError(ctx, err)
		return
	}
	route := service.SearchSubmitRoute(req.Term, cursos)
	if route == "" {
		util.Success(ctx, nil)
		return
	}
	util.SuccessRedirect(ctx, nil, route)
}

// HandleWS godoc
// @Summary 外壳 WebSocket
// @Description 通知轮询与搜索防抖的实时通道
// @Tags 布局
// @Success 101 {string} string "Switching Protocols"
// @Router /ws/shell [get]
func (c *LayoutController) HandleWS(ctx *gin.Context) {
	sess := util.GetSessionFromContext(ctx)
	client := util.GetAPIFromContext(ctx)
	if sess == nil || client == nil {
		util.Error(ctx, http.StatusUnauthorized, util.MsgSessionExpired)
		return
	}
	service.ServeShell(c.Hub, ctx.Writer, ctx.Request, sess.ID, client)
}
