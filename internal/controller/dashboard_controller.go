package controller

import (
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// Formando godoc
// @Summary 学员仪表盘
// @Description 报名课程、推荐课程与每门课程的测验数量
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} util.Response{data=service.FormandoDashboardView}
// @Failure 401 {object} util.Response
// @Router /formando/dashboard [get]
func (c *DashboardController) Formando(ctx *gin.Context) {
	view, err := c.DashboardService.Formando(ctx.Request.Context(), util.GetAPIFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Gestor godoc
// @Summary 管理员仪表盘
// @Tags 仪表盘
// @Produce json
// @Param tipo query string false "课程类型过滤 (todos|síncrono|assíncrono)"
// @Success 200 {object} util.Response{data=service.GestorDashboardView}
// @Router /gestor/dashboard [get]
func (c *DashboardController) Gestor(ctx *gin.Context) {
	view, err := c.DashboardService.Gestor(ctx.Request.Context(), util.GetAPIFromContext(ctx), ctx.DefaultQuery("tipo", util.FiltroTodos))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Formador godoc
// @Summary 讲师仪表盘
// @Description 分类、区域、主题级联筛选
// @Tags 仪表盘
// @Produce json
// @Param categoria query string false "分类"
// @Param area query string false "区域"
// @Param topico query string false "主题"
// @Success 200 {object} util.Response{data=service.FormadorDashboardView}
// @Router /formador/dashboard [get]
func (c *DashboardController) Formador(ctx *gin.Context) {
	var filtro service.FormadorFiltro
	if err := ctx.ShouldBindQuery(&filtro); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.DashboardService.Formador(ctx.Request.Context(), util.GetAPIFromContext(ctx), filtro)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
