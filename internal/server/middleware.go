package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	maxRequestIDLen = 128
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()
	}
}

func accessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"durationMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP(),
			"requestID", c.GetString(requestIDKey),
		}

		if len(c.Errors) > 0 {
			log.ErrorContext(c.Request.Context(), "HTTP request with errors",
				append(attrs, "errors", c.Errors.String())...)

			return
		}

		log.InfoContext(c.Request.Context(), "HTTP request", attrs...)
	}
}

func recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(c.Request.Context(), "Panic is recovered",
					"panic", r,
					"path", c.Request.URL.Path,
					"method", c.Request.Method)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgSomethingWentWrong})
			}
		}()

		c.Next()
	}
}
