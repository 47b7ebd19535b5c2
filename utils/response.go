package utils

import (
	"net/http"
	"time"

	"pulse_social/model"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success   bool        `json:"success"`
	Timestamp int64       `json:"timestamp"`            // 毫秒
	Data      interface{} `json:"data,omitempty"`       // 成功时的数据
	ErrorCode string      `json:"error_code,omitempty"` // 失败时的错误码
	Message   string      `json:"message,omitempty"`    // 失败时的提示
}

// SuccessResponse 成功响应（带数据）
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, httpStatus int, errorCode, message string) {
	c.JSON(httpStatus, Response{
		Success:   false,
		Timestamp: time.Now().UnixMilli(),
		ErrorCode: errorCode,
		Message:   message,
	})
}

// AppErrorResponse 业务错误响应（按错误自身的状态码和错误码）
func AppErrorResponse(c *gin.Context, err error) {
	appErr := model.AsAppError(err)
	ErrorResponse(c, appErr.Status, appErr.Code, appErr.Message)
}

// 常用错误响应快捷方法

// BadRequest 400 参数错误
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, model.CodeValidation, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, model.CodeUnauthorized, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, model.CodeNotFound, message)
}

// TooManyRequests 429 触发限流
func TooManyRequests(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusTooManyRequests, model.CodeRateLimited, message)
}

// InternalServerError 500 服务器错误
func InternalServerError(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, model.CodeInternal, "internal server error")
}
