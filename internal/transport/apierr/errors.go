// Package apierr типизированные ошибки ответов внешних HTTP API.
package apierr

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Константы минимального и максимально значения в заголовке Retry-After.
const (
	minRetryAfter     = 1
	maxRetryAfter     = 120
	defaultRetryAfter = 60
)

type StatusCodeError struct {
	Code    int
	Message string
}

func NewStatusCodeError(code int, message string) *StatusCodeError {
	return &StatusCodeError{Code: code, Message: message}
}

func (e *StatusCodeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Unexpected status code %d", e.Code)
	}
	return fmt.Sprintf("Unexpected status code %d: %s", e.Code, e.Message)
}

type TooManyRequestError struct {
	RetryAfter time.Duration
}

func NewTooManyRequestError(retryAfter time.Duration) *TooManyRequestError {
	return &TooManyRequestError{RetryAfter: retryAfter}
}

func (e *TooManyRequestError) Error() string {
	return fmt.Sprintf("Too many requests. Need retry after %.f seconds", e.RetryAfter.Seconds())
}

// FromTooManyRequests создает TooManyRequestError по заголовку Retry-After ответа. Значения вне диапазона
// [1, 120] секунд и нечисловые значения заменяются на 60 секунд.
func FromTooManyRequests(resp *http.Response) *TooManyRequestError {
	minValue := decimal.NewFromInt(minRetryAfter)
	maxValue := decimal.NewFromInt(maxRetryAfter)

	retryAfter, parseErr := decimal.NewFromString(resp.Header.Get("Retry-After"))
	if parseErr != nil || retryAfter.LessThan(minValue) || retryAfter.GreaterThan(maxValue) {
		retryAfter = decimal.NewFromInt(defaultRetryAfter)
	}

	return NewTooManyRequestError(time.Duration(retryAfter.IntPart()) * time.Second)
}
