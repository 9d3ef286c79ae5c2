package controller

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type UserAdminController struct {
	UserAdminService *service.UserAdminService
}

func NewUserAdminController(userAdminService *service.UserAdminService) *UserAdminController {
	return &UserAdminController{UserAdminService: userAdminService}
}

// PedidoDecisaoRequest 处理注册申请，filtro 为当前用户列表的状态过滤
type PedidoDecisaoRequest struct {
	Tipo   model.Role `json:"tipo" binding:"required"`
	Filtro string     `json:"filtro"`
}

// ChangeStateRequest 携带当前列表，服务端只修补目标行
type ChangeStateRequest struct {
	model.EstadoUtilizadorRequest
	Utilizadores []model.Utilizador `json:"utilizadores"`
}

// List godoc
// @Summary 用户与注册申请
// @Tags 用户管理
// @Produce json
// @Param estado query string false "状态过滤，todos 表示全部"
// @Success 200 {object} util.Response{data=service.UserAdminView}
// @Router /gestor/utilizadores [get]
func (c *UserAdminController) List(ctx *gin.Context) {
	view, err := c.UserAdminService.Load(ctx.Request.Context(), util.GetAPIFromContext(ctx), ctx.DefaultQuery("estado", util.FiltroTodos))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Accept godoc
// @Summary 接受注册申请
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param id path int true "申请ID"
// @Param body body PedidoDecisaoRequest true "用户类型"
// @Success 200 {object} util.Response{data=service.UserAdminView}
// @Router /gestor/pedidos-registo/{id}/aceitar [put]
func (c *UserAdminController) Accept(ctx *gin.Context) {
	c.decide(ctx, c.UserAdminService.Accept)
}

// Reject godoc
// @Summary 拒绝注册申请
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param id path int true "申请ID"
// @Param body body PedidoDecisaoRequest true "用户类型"
// @Success 200 {object} util.Response{data=service.UserAdminView}
// @Router /gestor/pedidos-registo/{id}/rejeitar [put]
func (c *UserAdminController) Reject(ctx *gin.Context) {
	c.decide(ctx, c.UserAdminService.Reject)
}

type decisionFunc func(ctx context.Context, api apiclient.API, pedidoID int, tipo model.Role, filtro string) (*service.UserAdminView, error)

func (c *UserAdminController) decide(ctx *gin.Context, fn decisionFunc) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req PedidoDecisaoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := fn(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req.Tipo, req.Filtro)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ChangeState godoc
// @Summary 修改用户状态
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param body body ChangeStateRequest true "新状态与当前列表"
// @Success 200 {object} util.Response{data=[]model.Utilizador}
// @Router /gestor/utilizadores/{id} [put]
func (c *UserAdminController) ChangeState(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req ChangeStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	users, err := c.UserAdminService.ChangeState(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req.EstadoUtilizadorRequest, req.Utilizadores)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, users)
}
