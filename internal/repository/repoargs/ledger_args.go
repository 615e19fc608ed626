package repoargs

import "github.com/fsdevblog/imagify/internal/domain"

type CreateLedgerEntry struct {
	UserID        int64
	TransactionID *int64
	Direction     domain.DirectionType
	Reason        domain.LedgerReasonType
	Amount        int64
}
