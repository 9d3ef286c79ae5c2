package controller

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

// NotificationController HTTP 版本的通知下拉框。每次操作前从上游加载，完成后通知实时通道刷新
type NotificationController struct {
	NotificationService *service.NotificationService
	Hub                 *service.ShellHub
}

func NewNotificationController(notificationService *service.NotificationService, hub *service.ShellHub) *NotificationController {
	return &NotificationController{NotificationService: notificationService, Hub: hub}
}

type RemoveNotificationsRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

type notificationOp func(ctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error)

// mutate 加载面板、执行操作、推送刷新，返回最新视图
func (c *NotificationController) mutate(ctx *gin.Context, op notificationOp) {
	api := util.GetAPIFromContext(ctx)
	panel := service.NewNotificationPanel()
	if err := c.NotificationService.Load(ctx.Request.Context(), api, panel); err != nil {
		respondError(ctx, err)
		return
	}

	extra, err := op(ctx.Request.Context(), api, panel)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if c.Hub != nil {
		c.Hub.NotifyStale(sessionID(ctx))
	}

	data := gin.H{"notificacoes": panel.View(c.NotificationService.Now())}
	for k, v := range extra {
		data[k] = v
	}
	if link, ok := extra["link"].(string); ok && link != "" {
		util.SuccessRedirect(ctx, data, link)
		return
	}
	util.Success(ctx, data)
}

// List godoc
// @Summary 最近通知
// @Description 最近 10 条通知与未读数量
// @Tags 通知
// @Produce json
// @Success 200 {object} util.Response{data=service.NotificationView}
// @Router /notificacoes [get]
func (c *NotificationController) List(ctx *gin.Context) {
	view, err := c.NotificationService.Snapshot(ctx.Request.Context(), util.GetAPIFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// MarkRead godoc
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Param id path int true "通知ID"
// @Success 200 {object} util.Response
// @Router /notificacoes/{id}/ler [put]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		return nil, c.NotificationService.MarkRead(rctx, api, panel, id)
	})
}

// MarkAllRead godoc
// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Success 200 {object} util.Response
// @Router /notificacoes/ler-todas [put]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		return nil, c.NotificationService.MarkAllRead(rctx, api, panel)
	})
}

// Open godoc
// @Summary 点击通知
// @Description 未读时先标记已读，有链接则返回跳转地址
// @Tags 通知
// @Produce json
// @Param id path int true "通知ID"
// @Success 200 {object} util.Response
// @Router /notificacoes/{id}/abrir [post]
func (c *NotificationController) Open(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		link, err := c.NotificationService.Open(rctx, api, panel, id)
		return gin.H{"link": link}, err
	})
}

// Remove godoc
// @Summary 删除通知
// @Tags 通知
// @Produce json
// @Param id path int true "通知ID"
// @Success 200 {object} util.Response
// @Router /notificacoes/{id} [delete]
func (c *NotificationController) Remove(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		return nil, c.NotificationService.Remove(rctx, api, panel, id)
	})
}

// RemoveAll godoc
// @Summary 删除全部通知
// @Tags 通知
// @Produce json
// @Success 200 {object} util.Response
// @Router /notificacoes/todas [delete]
func (c *NotificationController) RemoveAll(ctx *gin.Context) {
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		return nil, c.NotificationService.RemoveAll(rctx, api, panel)
	})
}

// RemoveRead godoc
// @Summary 删除已读通知
// @Tags 通知
// @Produce json
// @Success 200 {object} util.Response
// @Router /notificacoes/lidas [delete]
func (c *NotificationController) RemoveRead(ctx *gin.Context) {
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		message, err := c.NotificationService.RemoveRead(rctx, api, panel)
		return gin.H{"message": message}, err
	})
}

// RemoveMany godoc
// @Summary 批量删除通知
// @Tags 通知
// @Accept json
// @Produce json
// @Param body body RemoveNotificationsRequest true "通知ID列表"
// @Success 200 {object} util.Response
// @Router /notificacoes/remover [post]
func (c *NotificationController) RemoveMany(ctx *gin.Context) {
	var req RemoveNotificationsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.mutate(ctx, func(rctx context.Context, api apiclient.API, panel *service.NotificationPanel) (gin.H, error) {
		return nil, c.NotificationService.RemoveMany(rctx, api, panel, req.IDs)
	})
}
