package middleware

import (
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResolveAuth 每个请求都向上游 /auth/check 确认登录状态，结果写入上下文。
// 会话没有任何凭据时直接视为未登录，不访问上游
func ResolveAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := util.GetSessionFromContext(c)
		client := util.GetAPIFromContext(c)
		if sess == nil || client == nil || sess.Credentials.Empty() {
			if sess != nil {
				sess.SetRole("")
			}
			c.Set(util.ContextKeyAuth, model.Auth{})
			c.Next()
			return
		}

		auth, err := authService.Check(c.Request.Context(), client, sess)
		if err != nil && !apiclient.IsUnauthorized(err) {
			logger.Log.Warn("auth check failed", zap.Error(err))
		}
		c.Set(util.ContextKeyAuth, auth)
		c.Next()
	}
}

// AuthMiddleware 未登录或角色不可识别时浏览器跳转 /login，API 调用返回 401
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !util.GetAuthFromContext(c).EffectiveRole().Valid() {
			util.RedirectOrJSON(c, http.StatusUnauthorized, service.RouteLogin)
			c.Abort()
			return
		}
		c.Next()
	}
}

func RoleMiddleware(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := util.GetAuthFromContext(c)
		if !auth.EffectiveRole().Valid() {
			util.RedirectOrJSON(c, http.StatusUnauthorized, service.RouteLogin)
			c.Abort()
			return
		}

		for _, role := range roles {
			if auth.Role == role {
				c.Next()
				return
			}
		}

		logger.Log.Info("role denied",
			zap.String("path", c.Request.URL.Path),
			zap.String("role", string(auth.Role)))
		util.Forbidden(c)
		c.Abort()
	}
}
