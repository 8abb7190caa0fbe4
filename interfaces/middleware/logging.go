package middleware

import (
	"youtube-downloader/infrastructure/logger"
	"youtube-downloader/infrastructure/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "requestId"
)

// RequestLogger tags each request with an ID and logs its outcome.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := utils.GetCurrentTime()
		requestID := ctx.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(RequestIDKey, requestID)
		ctx.Header(RequestIDHeader, requestID)

		ctx.Next()

		entry := logger.GetLogger().WithFields(map[string]interface{}{
			RequestIDKey: requestID,
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"status":     ctx.Writer.Status(),
			"bytes":      ctx.Writer.Size(),
			"latency":    utils.GetCurrentTime().Sub(start).String(),
			"clientIP":   ctx.ClientIP(),
		})
		if len(ctx.Errors) > 0 {
			entry.WithField("error", ctx.Errors.String()).Warn("Request completed with errors")
			return
		}
		entry.Info("Request completed")
	}
}
