package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CurrentUserIDKey = "currentUserID"
	// LegacyTokenHeader заголовок, в котором токен присылает веб-клиент.
	LegacyTokenHeader = "token"
)

type Authenticator interface {
	Authenticate(token string) (int64, error)
}

// AuthRequired пропускает только запросы с валидным токеном в заголовке Authorization: Bearer или token.
// id юзера сохраняется в контексте под ключом CurrentUserIDKey.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.Authenticate(extractToken(c))
		if err != nil {
			Abort(c, http.StatusUnauthorized, err, gin.ErrorTypePrivate)
			return
		}
		c.Set(CurrentUserIDKey, userID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(c.GetHeader(LegacyTokenHeader))
}
