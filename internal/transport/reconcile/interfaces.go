package reconcile

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/service"
)

type Gateway interface {
	FetchOrder(ctx context.Context, orderID string) (*domain.GatewayOrder, error)
}

type Servicer interface {
	PendingForReconciliation(ctx context.Context, limit uint) ([]domain.Transaction, error)
	ApplyReconciliation(ctx context.Context, results []service.ReconcileResult) (int, error)
}
