package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger puts a request-scoped zerolog logger on the request context and logs
// every request once it completes. Bodies are not logged; they carry health
// data. Must run after RequestID.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		reqLogger := log.With().Str("request_id", c.GetString(ContextRequestID)).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		statusCode := c.Writer.Status()
		event := reqLogger.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event = reqLogger.Error()
			msg = "Server error"
		case statusCode >= 400:
			event = reqLogger.Warn()
			msg = "Client error"
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("subject", Subject(c)).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
