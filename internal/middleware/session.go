package middleware

import (
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"formar_portal/pkg/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware 从 cookie 中的 JWT 取出会话 id，加载会话并为其构造上游客户端。
// 请求结束后凭据或会话有变化时回写存储；会话换发 ID 时删除旧条目，登出时删除整个会话
func SessionMiddleware(store session.Store, factory *apiclient.Factory, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		setCookie := func(value string, maxAge int) {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    value,
				Path:     "/",
				MaxAge:   maxAge,
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		cookies := &util.SessionCookies{
			TTL: cfg.TTL,
			Issue: func(s *session.Session) error {
				token, err := util.GenerateSessionToken(s.ID, cfg.Secret, cfg.TTL)
				if err != nil {
					return err
				}
				setCookie(token, int(cfg.TTL.Seconds()))
				return nil
			},
			Expire: func() { setCookie("", -1) },
		}

		var sess *session.Session
		if raw, err := c.Cookie(cfg.CookieName); err == nil && raw != "" {
			if claims, err := util.ParseSessionToken(raw, cfg.Secret); err == nil {
				sess, err = store.Get(ctx, claims.SessionID)
				if err != nil && err != session.ErrNotFound {
					logger.Log.Warn("Failed to load session", zap.Error(err))
				}
			}
		}

		isNew := sess == nil
		if isNew {
			sess = session.New(cfg.TTL)
			if err := cookies.Issue(sess); err != nil {
				util.LogInternalError(c, err)
				c.Abort()
				return
			}
		}

		client := factory.ForSession(sess.Credentials)

		c.Set(util.ContextKeySession, sess)
		c.Set(util.ContextKeySessionCookies, cookies)
		c.Set(util.ContextKeyAPI, client)

		c.Next()

		if prev := sess.PreviousID(); prev != "" {
			if err := store.Delete(ctx, prev); err != nil {
				logger.Log.Warn("Failed to delete rotated session", zap.Error(err))
			}
		}
		if sess.Ended() {
			if err := store.Delete(ctx, sess.ID); err != nil {
				logger.Log.Warn("Failed to delete ended session", zap.Error(err))
			}
			return
		}

		if client.Changed() {
			sess.SetCredentials(client.Credentials())
		}
		if !sess.Dirty() && !isNew {
			return
		}
		if err := store.Save(ctx, sess); err != nil {
			logger.Log.Error("Failed to save session",
				zap.String("sessionId", sess.ID),
				zap.Error(err))
		}
	}
}
