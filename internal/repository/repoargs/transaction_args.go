package repoargs

import (
	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateTransaction struct {
	UserID   int64
	Plan     domain.PlanID
	Amount   decimal.Decimal
	Currency string
	Credits  int64
}
