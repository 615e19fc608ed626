package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
)

// publicErrors бизнес-ошибки, текст которых отдается клиенту, и их http статусы.
var publicErrors = []struct {
	err    error
	status int
}{
	{err: domain.ErrValidation, status: http.StatusBadRequest},
	{err: domain.ErrDuplicateEmail, status: http.StatusBadRequest},
	{err: domain.ErrNotRegistered, status: http.StatusBadRequest},
	{err: domain.ErrInvalidCredentials, status: http.StatusBadRequest},
	{err: domain.ErrInsufficientCredit, status: http.StatusBadRequest},
	{err: domain.ErrUnknownPlan, status: http.StatusBadRequest},
	{err: domain.ErrInvalidTransaction, status: http.StatusBadRequest},
	{err: domain.ErrPaymentNotCompleted, status: http.StatusBadRequest},
	{err: domain.ErrUnauthorized, status: http.StatusUnauthorized},
	{err: domain.ErrRecordNotFound, status: http.StatusNotFound},
}

// publicError ошибка с безопасным для клиента текстом. Исходная ошибка доступна через Unwrap.
type publicError struct {
	msg string
	err error
}

func (e *publicError) Error() string { return e.msg }
func (e *publicError) Unwrap() error { return e.err }

// newPublicError оставляет от текста err часть, начиная с текста sentinel. Префиксы с внутренними подробностями
// отбрасываются, уточнения после sentinel сохраняются ("validation error: prompt is required").
func newPublicError(sentinel, err error) *publicError {
	msg := err.Error()
	if idx := strings.Index(msg, sentinel.Error()); idx >= 0 {
		msg = msg[idx:]
	} else {
		msg = sentinel.Error()
	}
	return &publicError{msg: msg, err: err}
}

// abortWithServiceError прерывает запрос с http статусом, соответствующим ошибке сервисного слоя.
func abortWithServiceError(c *gin.Context, err error) {
	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			middlewares.Abort(c, pe.status, newPublicError(pe.err, err), gin.ErrorTypePublic)
			return
		}
	}
	if errors.Is(err, domain.ErrUpstream) {
		middlewares.Abort(c, http.StatusInternalServerError,
			&publicError{msg: domain.ErrUpstream.Error(), err: err}, gin.ErrorTypePublic)
		return
	}
	middlewares.Abort(c, http.StatusInternalServerError, err, gin.ErrorTypePrivate)
}

// abortWithBindError прерывает запрос с ошибкой разбора или валидации тела запроса.
func abortWithBindError(c *gin.Context, err error) {
	middlewares.Abort(c, http.StatusBadRequest,
		&publicError{msg: domain.ErrValidation.Error() + ": " + bindErrorText(err), err: err}, gin.ErrorTypePublic)
}
