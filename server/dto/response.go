// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rushteam/jembertrip/core"
)

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, code, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: c.GetString("request_id"),
		TraceID:   c.GetString("trace_id"),
	})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, core.ErrorCodeInvalidInput, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, core.ErrorCodeNotFound, message)
}

// FromError 把领域错误映射为 HTTP 状态码
func FromError(c *gin.Context, err error) {
	var de *core.DomainError
	if !errors.As(err, &de) {
		Error(c, http.StatusInternalServerError, core.ErrorCodeInternalError, "internal server error")
		return
	}
	status := http.StatusInternalServerError
	switch de.Code {
	case core.ErrorCodeNotFound:
		status = http.StatusNotFound
	case core.ErrorCodeUnavailable:
		status = http.StatusServiceUnavailable
	case core.ErrorCodeInvalidInput:
		status = http.StatusBadRequest
	case core.ErrorCodeNotSupported:
		status = http.StatusNotImplemented
	}
	Error(c, status, de.Code, de.Message)
}
