package middleware

import (
	"errors"

	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandler maps the last gin error to the typed taxonomy and renders
// the canonical error body. Handlers push errors and return; no handler
// writes error statuses itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
		}

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		}
		if appErr.HTTPStatus >= 500 {
			// LogError appends the taxonomy code itself.
			logger.LogError(c.Request.Context(), appErr, "Internal Server Error", logFields...)
		} else {
			logger.Warn(appErr.Message, append(logFields, "code", appErr.Type)...)
		}

		c.JSON(appErr.HTTPStatus, gin.H{
			"success": false,
			"error":   appErr,
		})
	}
}
