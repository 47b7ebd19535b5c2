package model

import (
	"errors"
	"net/http"
	"regexp"
)

// 错误码常量（响应体中的 error_code 字段）
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeConflict         = "CONFLICT"
	CodeNotFound         = "NOT_FOUND"
	CodeBulkSizeExceeded = "BULK_SIZE_EXCEEDED"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError 业务错误：显式结果类型，替代异常控制流
type AppError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Code + ": " + e.Message
}

// NewValidationError 参数校验错误（400）
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

// NewConflictError 状态冲突错误（400，带具体错误码）
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Status: http.StatusBadRequest}
}

// NewNotFoundError 资源不存在（404）
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

// NewBulkSizeError 批量操作超限（400）
func NewBulkSizeError(message string) *AppError {
	return &AppError{Code: CodeBulkSizeExceeded, Message: message, Status: http.StatusBadRequest}
}

// NewInternalError 内部错误（500，对外隐藏细节）
func NewInternalError() *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", Status: http.StatusInternalServerError}
}

// AsAppError 将任意 error 归一化为 AppError（未知错误归为 500）
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError()
}

// 用户 ID 格式：3-64 位字母、数字、下划线、连字符
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

// ValidateUserID 校验用户 ID 格式
func ValidateUserID(userID string) error {
	if userID == "" {
		return NewValidationError("user id cannot be empty")
	}
	if !userIDPattern.MatchString(userID) {
		return NewValidationError("invalid user id format")
	}
	return nil
}

// ValidateUserPair 校验一对用户 ID（拒绝自引用）
func ValidateUserPair(a, b string) error {
	if err := ValidateUserID(a); err != nil {
		return err
	}
	if err := ValidateUserID(b); err != nil {
		return err
	}
	if a == b {
		return NewValidationError("user ids cannot be the same")
	}
	return nil
}
