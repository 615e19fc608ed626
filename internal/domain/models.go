package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Name              string
	Email             string
	EncryptedPassword string
	CreditBalance     int64
}

// Transaction запись о покупке пакета кредитов. Переходит из PENDING в PAID ровно один раз.
type Transaction struct {
	ID             int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         int64
	Plan           PlanID
	Amount         decimal.Decimal
	Currency       string
	Credits        int64
	GatewayOrderID string
	Paid           bool
	PaidAt         *time.Time
	Attempts       uint
}

func (t *Transaction) Status() TransactionStatusType {
	if t.Paid {
		return TransactionStatusPaid
	}
	return TransactionStatusPending
}

// LedgerEntry запись журнала движения кредитов.
type LedgerEntry struct {
	ID            int64
	CreatedAt     time.Time
	UserID        int64
	TransactionID *int64
	Direction     DirectionType
	Reason        LedgerReasonType
	Amount        int64
}

// PaymentOrder описание заказа платежного шлюза, возвращаемое клиенту для оплаты.
type PaymentOrder struct {
	OrderID       string
	TransactionID int64
	Plan          PlanID
	Credits       int64
	Amount        int64 // в минимальных единицах валюты
	Currency      string
	Receipt       string
	Status        string
}

// GeneratedImage результат генерации изображения.
type GeneratedImage struct {
	Data          []byte
	ContentType   string
	CreditBalance int64
}

// GatewayOrder заказ во внешнем платежном шлюзе. Receipt содержит id транзакции и служит ключом сверки.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}
