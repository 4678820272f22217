package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
)

// ErrorHandler renders the last error recorded on the context as
// {code, message, details}. Internal causes are logged, never returned.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := apperror.AsAppError(err); ok {
			fields := []zap.Field{
				zap.String("code", appErr.Code),
				zap.String("path", c.FullPath()),
				zap.Error(appErr),
			}
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
			} else {
				logger.Debug("request rejected", fields...)
			}
			c.JSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
			return
		}

		logger.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apperror.CodeInternal,
			"message": "internal server error",
		})
	}
}
