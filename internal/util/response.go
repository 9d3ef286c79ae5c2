package util

import (
	"formar_portal/pkg/logger"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// SuccessRedirect 成功并提示前端跳转
func SuccessRedirect(c *gin.Context, data interface{}, redirect string) {
	c.JSON(http.StatusOK, Response{
		Code:     http.StatusOK,
		Message:  "success",
		Data:     data,
		Redirect: redirect,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, MsgSessionExpired)
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Sem permissão para aceder a esta página.")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Recurso não encontrado.")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Erro interno do servidor.")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c)
}

// WantsJSON 判断调用方是 API 客户端还是浏览器导航
func WantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// RedirectOrJSON 浏览器得到 302，API 客户端得到带 redirect 的信封
func RedirectOrJSON(c *gin.Context, code int, location string) {
	if WantsJSON(c) {
		c.JSON(code, Response{Code: code, Message: http.StatusText(code), Redirect: location})
		return
	}
	c.Redirect(http.StatusFound, location)
}
