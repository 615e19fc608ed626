package api

import (
	"github.com/fsdevblog/imagify/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
)

// getUserIDFromContext возвращает id юзера, сохраненный AuthRequired.
func getUserIDFromContext(c *gin.Context) int64 {
	return c.GetInt64(middlewares.CurrentUserIDKey)
}
