package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError 上游调用失败：网络错误时 Status 为 0
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

func newStatusError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method:  method,
		Path:    path,
		Status:  status,
		Message: extractMessage(body),
		Body:    body,
	}
}

// extractMessage 尽力从响应体中提取 message / error 字段
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// StatusOf 返回上游 HTTP 状态码，非上游错误返回 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusOf(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return StatusOf(err) == http.StatusNotFound }

func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// MessageOr 上游消息优先，否则使用 fallback
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
