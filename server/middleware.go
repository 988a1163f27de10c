package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/executionbackup/logger"
)

// recovery recovers from handler panics and logs the stack.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					logger.FieldMethod, c.Request.Method,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestID injects a unique X-Request-Id header into every
// request/response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// requestLogger logs every request with method, path, status, and
// duration, and records the request metric. Status endpoints are
// skipped so pollers do not flood the log.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/metrics" || path == "/executionbackup/status" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		s.metrics.RecordRequest(c.Request.Context(), path, c.Request.Method, latency)

		fields := logger.Fields(
			logger.FieldMethod, c.Request.Method,
			"path", path,
			logger.FieldStatus, status,
			logger.FieldDuration, latency.Milliseconds(),
		)
		if id, ok := c.Get("request_id"); ok {
			fields[logger.FieldRequestID] = id
		}

		switch {
		case status >= 500:
			s.log.Error("request completed", fields)
		case status >= 400:
			s.log.Warn("request completed", fields)
		default:
			s.log.Debug("request completed", fields)
		}
	}
}
