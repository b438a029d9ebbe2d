package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notebooks/runner/internal/runner"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RequestID 为每个请求分配唯一ID，写入响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// ErrorHandlingMiddleware 统一错误处理中间件
func ErrorHandlingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "INTERNAL_ERROR",
					Message: "An internal error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		// 处理错误
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))

			// 根据错误类型返回适当的响应
			var execErr *runner.ExecutionError
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound),
				errors.Is(err, runner.ErrNotebookNotFound):
				c.JSON(http.StatusNotFound, ErrorResponse{
					Code:    "NOT_FOUND",
					Message: "Resource not found",
					Details: err.Error(),
				})
			case errors.Is(err, runner.ErrForbiddenPath):
				c.JSON(http.StatusForbidden, ErrorResponse{
					Code:    "FORBIDDEN",
					Message: "Path is outside the user's home directory",
					Details: err.Error(),
				})
			case errors.Is(err, runner.ErrQueueFull):
				c.JSON(http.StatusServiceUnavailable, ErrorResponse{
					Code:    "QUEUE_FULL",
					Message: "Execution queue is full, try again later",
				})
			case errors.Is(err, runner.ErrInvalidParameters):
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Code:    "INVALID_PARAMETERS",
					Message: "Parameter validation failed",
					Details: err.Error(),
				})
			case errors.As(err, &execErr):
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "EXECUTION_FAILED",
					Message: "Notebook execution failed",
					Details: execErr.Detail,
				})
			case errors.Is(err, gorm.ErrDuplicatedKey):
				c.JSON(http.StatusConflict, ErrorResponse{
					Code:    "DUPLICATE",
					Message: "Resource already exists",
				})
			default:
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "INTERNAL_ERROR",
					Message: "An error occurred while processing your request",
					Details: err.Error(),
				})
			}
		}
	}
}
