package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusUnprocessableEntity:
		return "unprocessable entity"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "too many requests"
	default:
		return "internal server error"
	}
}

// Abort прерывает запрос с ошибкой err и статусом status, не записывая заголовки ответа. Ответ формирует Errors.
func Abort(c *gin.Context, status int, err error, errType gin.ErrorType) {
	_ = c.Error(err).SetType(errType)
	c.Status(status)
	c.Abort()
}

// Errors отрисовывает первую ошибку запроса в виде {"error": msg}. Публичные ошибки отдаются как есть,
// для остальных клиент получает только текст статуса. text/plain отдается, если клиент явно его просит.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		// обрабатываем только первую ошибку
		firstErr := c.Errors[0]
		var msg string
		if firstErr.IsType(gin.ErrorTypePublic) {
			msg = firstErr.Error()
		} else {
			msg = statusErrorText(c.Writer.Status())
		}

		accept := c.GetHeader("Accept")
		if strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json") {
			c.String(c.Writer.Status(), msg)
		} else {
			c.JSON(c.Writer.Status(), gin.H{"error": msg})
		}
		c.Abort()
	}
}
