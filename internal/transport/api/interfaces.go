package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/service"
)

type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
	Authenticate(token string) (int64, error)
}

type CreditServicer interface {
	GetAccount(ctx context.Context, userID int64) (*domain.User, error)
	History(ctx context.Context, userID int64, limit uint) ([]domain.LedgerEntry, error)
}

type ImageServicer interface {
	Generate(ctx context.Context, userID int64, prompt string) (*domain.GeneratedImage, error)
}

type PaymentServicer interface {
	CreateOrder(ctx context.Context, userID int64, planID string) (*domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, userID int64, orderID string) (int64, error)
}

// Pinger проверка доступности зависимости для health check.
type Pinger interface {
	Ping(ctx context.Context) error
}
