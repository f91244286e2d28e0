package utils

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeInvalidEmail            = "INVALID_EMAIL"
	CodeInvalidPhone            = "INVALID_PHONE"
	CodeInvalidDateRange        = "INVALID_DATE_RANGE"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeNotFound                = "NOT_FOUND"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeConflict                = "CONFLICT"
	CodeAlreadyApproved         = "ALREADY_APPROVED"
	CodeAlreadyRejected         = "ALREADY_REJECTED"
	CodeCannotDeletePaidOrder   = "CANNOT_DELETE_PAID_ORDER"
	CodeCircularRelationship    = "CIRCULAR_RELATIONSHIP"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeDatabaseError           = "DATABASE_ERROR"
)

// ApiError 业务错误，带HTTP状态码
type ApiError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error 实现error接口
func (e *ApiError) Error() string {
	return e.Code + ": " + e.Message
}

// NewApiError 创建业务错误
func NewApiError(code string, message string, statusCode int) *ApiError {
	return &ApiError{Code: code, Message: message, StatusCode: statusCode}
}

// ErrNotFound 资源不存在错误
func ErrNotFound(message string) *ApiError {
	return NewApiError(CodeNotFound, message, http.StatusNotFound)
}

// ErrForbidden 权限不足错误
func ErrForbidden(message string) *ApiError {
	return NewApiError(CodeForbidden, message, http.StatusForbidden)
}

// ErrValidation 参数校验错误
func ErrValidation(message string) *ApiError {
	return NewApiError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrConflict 状态冲突错误
func ErrConflict(code string, message string) *ApiError {
	return NewApiError(code, message, http.StatusConflict)
}

// RespondError 输出错误响应
// 非ApiError的意外错误统一降级为INTERNAL_ERROR，避免泄露内部细节
func RespondError(c *gin.Context, err error) {
	if apiErr, ok := err.(*ApiError); ok {
		c.JSON(apiErr.StatusCode, gin.H{
			"status":  "error",
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		})
		return
	}

	log.Printf("未预期的错误: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"code":    CodeInternalError,
		"message": "服务器内部错误",
	})
}
