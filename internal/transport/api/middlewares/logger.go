package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger пишет access log запроса.
func Logger(l *logrus.Logger) gin.HandlerFunc {
	entry := l.WithFields(logrus.Fields{
		"component": "api",
		"module":    "access",
	})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"size":      c.Writer.Size(),
			"clientIP":  c.ClientIP(),
			"requestID": c.GetString(RequestIDKey),
		}
		if userID, ok := c.Get(CurrentUserIDKey); ok {
			fields["userID"] = userID
		}

		le := entry.WithFields(fields)
		switch {
		case len(c.Errors.ByType(gin.ErrorTypePrivate)) > 0:
			le.WithField("errors", c.Errors.String()).Error("request failed")
		case len(c.Errors) > 0:
			le.WithField("errors", c.Errors.String()).Warn("request rejected")
		default:
			le.Info("request")
		}
	}
}
