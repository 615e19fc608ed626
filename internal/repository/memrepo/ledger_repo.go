package memrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
)

type LedgerRepository struct {
	conn *conn
}

// Create добавляет запись в журнал. Повторное начисление по одной транзакции возвращает domain.ErrDuplicateKey.
func (r *LedgerRepository) Create(_ context.Context, args repoargs.CreateLedgerEntry) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := r.conn.exec(func(s *store) error {
		if args.Amount <= 0 {
			return fmt.Errorf("[memrepo/creating ledger entry] non-positive amount: %w", domain.ErrUnknown)
		}
		if args.TransactionID != nil && args.Direction == domain.DirectionCredit {
			for _, e := range s.ledger {
				if e.TransactionID != nil && *e.TransactionID == *args.TransactionID &&
					e.Direction == domain.DirectionCredit {
					return fmt.Errorf("[memrepo/creating ledger entry] %w", domain.ErrDuplicateKey)
				}
			}
		}
		s.ledgerSeq++
		var trID *int64
		if args.TransactionID != nil {
			id := *args.TransactionID
			trID = &id
		}
		entry = domain.LedgerEntry{
			ID:            s.ledgerSeq,
			CreatedAt:     time.Now(),
			UserID:        args.UserID,
			TransactionID: trID,
			Direction:     args.Direction,
			Reason:        args.Reason,
			Amount:        args.Amount,
		}
		s.ledger = append(s.ledger, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByUserID возвращает последние limit записей юзера, самые свежие первыми.
func (r *LedgerRepository) GetByUserID(_ context.Context, userID int64, limit uint) ([]domain.LedgerEntry, error) {
	var res []domain.LedgerEntry
	err := r.conn.exec(func(s *store) error {
		for i := len(s.ledger) - 1; i >= 0 && uint(len(res)) < limit; i-- {
			if s.ledger[i].UserID == userID {
				res = append(res, s.ledger[i])
			}
		}
		return nil
	})
	return res, err
}
