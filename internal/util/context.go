package util

import (
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/pkg/session"
	"time"

	"github.com/gin-gonic/gin"
)

func GetSessionFromContext(c *gin.Context) *session.Session {
	v, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	sess, ok := v.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetAPIFromContext 返回当前会话的上游客户端，由 Session 中间件注入
func GetAPIFromContext(c *gin.Context) *apiclient.Client {
	v, exists := c.Get(ContextKeyAPI)
	if !exists {
		return nil
	}
	client, _ := v.(*apiclient.Client)
	return client
}

// GetAuthFromContext 未经过 ResolveAuth 时视为未登录
func GetAuthFromContext(c *gin.Context) model.Auth {
	v, exists := c.Get(ContextKeyAuth)
	if !exists {
		return model.Auth{}
	}
	auth, _ := v.(model.Auth)
	return auth
}

// SessionCookies 由 Session 中间件注入，负责签发与作废浏览器端的会话 cookie
type SessionCookies struct {
	TTL    time.Duration
	Issue  func(s *session.Session) error
	Expire func()
}

func getSessionCookies(c *gin.Context) (*SessionCookies, bool) {
	v, exists := c.Get(ContextKeySessionCookies)
	if !exists {
		return nil, false
	}
	cookies, ok := v.(*SessionCookies)
	return cookies, ok && cookies != nil
}

// RotateSession 登录成功后换发会话 ID 并写入新 cookie，必须在写响应之前调用
func RotateSession(c *gin.Context) error {
	sess := GetSessionFromContext(c)
	cookies, ok := getSessionCookies(c)
	if sess == nil || !ok {
		return nil
	}
	sess.Rotate(cookies.TTL)
	return cookies.Issue(sess)
}

// EndSession 作废当前会话，存储条目在请求结束时删除，浏览器 cookie 立即过期
func EndSession(c *gin.Context) {
	if sess := GetSessionFromContext(c); sess != nil {
		sess.End()
	}
	if cookies, ok := getSessionCookies(c); ok {
		cookies.Expire()
	}
}
