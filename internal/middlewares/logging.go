package middlewares

import (
	"context"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if actor, ok := ActorFrom(c); ok {
			attrs = append(attrs, "user_id", actor.UserID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request failed", attrs...)
		case status >= 400:
			log.Warn("request rejected", attrs...)
		default:
			log.Info("request handled", attrs...)
		}
	}
}

type ActivityRecorder interface {
	Record(ctx context.Context, a domain.UserActivity) error
}

// ActivityTracker buffers one activity entry per request. Recording errors
// never affect the response.
func ActivityTracker(rec ActivityRecorder, log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("activity")
	return func(c *gin.Context) {
		c.Next()

		a := domain.UserActivity{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
			OccurredAt: time.Now().UTC(),
		}
		if actor, ok := ActorFrom(c); ok {
			uid := actor.UserID
			a.UserID = &uid
		}
		if err := rec.Record(context.WithoutCancel(c.Request.Context()), a); err != nil {
			log.Warn("failed to buffer activity", "error", err)
		}
	}
}
