package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classtrack/internal/apperr"
	"classtrack/internal/attendance"
)

// writeError maps the error taxonomy to HTTP statuses. 4xx responses carry
// the error's own message; anything unmapped is a 500 with a generic body.
func (a *API) writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, attendance.ErrQRExpired),
		errors.Is(err, attendance.ErrDuplicateAttendance):
		status = http.StatusBadRequest
	case errors.Is(err, attendance.ErrNotEnrolled):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, attendance.ErrQRInvalid):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	default:
		a.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

// requestLogger logs each request with zap; health and metrics probes are
// skipped.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/healthz" || path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
