package domain

import (
	"errors"
)

// Ошибки слоя хранения.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")
)

// Бизнес-ошибки. Транспортный слой сопоставляет их с http статусами.
var (
	ErrValidation          = errors.New("validation error")
	ErrDuplicateEmail      = errors.New("user with this email already exists")
	ErrNotRegistered       = errors.New("user is not registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInsufficientCredit  = errors.New("insufficient credit balance")
	ErrUnknownPlan         = errors.New("unknown plan")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrUpstream            = errors.New("upstream error")
	ErrUnauthorized        = errors.New("unauthorized")
)

// ErrAlreadyPaid возвращается репозиторием, когда условное обновление paid=false -> paid=true не затронуло строку.
var ErrAlreadyPaid = errors.New("transaction already paid")
