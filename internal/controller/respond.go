package controller

import (
	"errors"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 服务层错误转为统一响应。401 同时清掉会话里的角色缓存
func respondError(ctx *gin.Context, err error) {
	if ue, ok := util.AsUserError(err); ok {
		if ue.Status == http.StatusUnauthorized {
			clearRole(ctx)
		}
		util.Error(ctx, ue.Status, ue.Message)
		return
	}

	switch {
	case apiclient.IsUnauthorized(err):
		clearRole(ctx)
		util.Unauthorized(ctx)
	case errors.Is(err, util.ErrInvalidDraftOp), errors.Is(err, util.ErrIndexOutOfRange):
		util.BadRequest(ctx, "Operação inválida.")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func clearRole(ctx *gin.Context) {
	if sess := util.GetSessionFromContext(ctx); sess != nil {
		sess.SetRole("")
	}
}

// paramID 解析路径中的正整数 id，失败时已写入 400
func paramID(ctx *gin.Context, name string) (int, bool) {
	id, ok := util.ParseID(ctx.Param(name))
	if !ok {
		util.BadRequest(ctx, "ID inválido.")
		return 0, false
	}
	return id, true
}

func queryInt(ctx *gin.Context, name string) (int, bool) {
	v, ok := util.ParseID(ctx.Query(name))
	if !ok {
		util.BadRequest(ctx, "Parâmetro "+name+" inválido.")
		return 0, false
	}
	return v, true
}
