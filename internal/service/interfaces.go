package service

import (
	"context"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(password string, hashedPassword string) bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, userID int64) (*domain.User, error)
	DebitBalance(ctx context.Context, userID int64, amount int64) (int64, error)
	CreditBalance(ctx context.Context, userID int64, amount int64) (int64, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, args repoargs.CreateTransaction) (*domain.Transaction, error)
	SetGatewayOrderID(ctx context.Context, id int64, orderID string) error
	FindByID(ctx context.Context, id int64) (*domain.Transaction, error)
	MarkPaid(ctx context.Context, id int64) (*domain.Transaction, error)
	GetForReconciliation(ctx context.Context, limit uint, maxAttempts uint) ([]domain.Transaction, error)
	IncrementAttempts(ctx context.Context, ids []int64) error
}

type LedgerRepository interface {
	Create(ctx context.Context, entry repoargs.CreateLedgerEntry) (*domain.LedgerEntry, error)
	GetByUserID(ctx context.Context, userID int64, limit uint) ([]domain.LedgerEntry, error)
}

// ImageGenerator внешний API генерации изображений по текстовому описанию.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (data []byte, contentType string, err error)
}

// PaymentGateway внешний платежный шлюз.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (*domain.GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*domain.GatewayOrder, error)
}
