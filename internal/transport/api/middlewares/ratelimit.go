package middlewares

import (
	"net/http"
	"strconv"

	"github.com/fsdevblog/imagify/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit ограничивает частоту запросов юзера. Должен подключаться после AuthRequired. При ошибке лимитера
// запрос пропускается.
func RateLimit(limiter ratelimit.Limiter, l *logrus.Logger) gin.HandlerFunc {
	entry := l.WithFields(logrus.Fields{
		"component": "api",
		"module":    "ratelimit",
	})
	return func(c *gin.Context) {
		key := "user:" + strconv.FormatInt(c.GetInt64(CurrentUserIDKey), 10)

		res, err := limiter.Allow(c, key)
		if err != nil {
			entry.WithError(err).WithField("key", key).Warn("rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
