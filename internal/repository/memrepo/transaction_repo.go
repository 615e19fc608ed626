package memrepo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
)

type TransactionRepository struct {
	conn *conn
}

func (r *TransactionRepository) Create(_ context.Context, args repoargs.CreateTransaction) (*domain.Transaction, error) {
	var tr domain.Transaction
	err := r.conn.exec(func(s *store) error {
		if _, ok := s.users[args.UserID]; !ok {
			return fmt.Errorf("[memrepo/creating transaction] unknown user %d: %w", args.UserID, domain.ErrUnknown)
		}
		s.transactionSeq++
		now := time.Now()
		tr = domain.Transaction{
			ID:        s.transactionSeq,
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    args.UserID,
			Plan:      args.Plan,
			Amount:    args.Amount,
			Currency:  args.Currency,
			Credits:   args.Credits,
		}
		s.transactions[tr.ID] = tr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (r *TransactionRepository) SetGatewayOrderID(_ context.Context, id int64, orderID string) error {
	return r.conn.exec(func(s *store) error {
		for _, t := range s.transactions {
			if t.ID != id && t.GatewayOrderID == orderID {
				return fmt.Errorf("[memrepo/setting gateway order `%s`] %w", orderID, domain.ErrDuplicateKey)
			}
		}
		tr, ok := s.transactions[id]
		if !ok || tr.Paid {
			return fmt.Errorf("[memrepo/setting gateway order for transaction %d] %w", id, domain.ErrRecordNotFound)
		}
		tr.GatewayOrderID = orderID
		tr.UpdatedAt = time.Now()
		s.transactions[id] = tr
		return nil
	})
}

func (r *TransactionRepository) FindByID(_ context.Context, id int64) (*domain.Transaction, error) {
	var tr domain.Transaction
	err := r.conn.exec(func(s *store) error {
		t, ok := s.transactions[id]
		if !ok {
			return fmt.Errorf("[memrepo/finding transaction by id %d] %w", id, domain.ErrRecordNotFound)
		}
		tr = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// MarkPaid переводит транзакцию в PAID только если она еще не оплачена.
func (r *TransactionRepository) MarkPaid(_ context.Context, id int64) (*domain.Transaction, error) {
	var tr domain.Transaction
	err := r.conn.exec(func(s *store) error {
		t, ok := s.transactions[id]
		if !ok {
			return fmt.Errorf("[memrepo/marking transaction %d paid] %w", id, domain.ErrRecordNotFound)
		}
		if t.Paid {
			return fmt.Errorf("[memrepo/marking transaction %d paid] %w", id, domain.ErrAlreadyPaid)
		}
		now := time.Now()
		t.Paid = true
		t.PaidAt = &now
		t.UpdatedAt = now
		s.transactions[id] = t
		tr = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (r *TransactionRepository) GetForReconciliation(
	_ context.Context,
	limit uint,
	maxAttempts uint,
) ([]domain.Transaction, error) {
	var res []domain.Transaction
	err := r.conn.exec(func(s *store) error {
		for _, t := range s.transactions {
			if !t.Paid && t.GatewayOrderID != "" && t.Attempts < maxAttempts {
				res = append(res, t)
			}
		}
		return nil
	})
	slices.SortFunc(res, func(a, b domain.Transaction) int {
		return cmp.Compare(a.ID, b.ID)
	})
	if uint(len(res)) > limit {
		res = res[:limit]
	}
	return res, err
}

func (r *TransactionRepository) IncrementAttempts(_ context.Context, ids []int64) error {
	return r.conn.exec(func(s *store) error {
		for _, id := range ids {
			if t, ok := s.transactions[id]; ok {
				t.Attempts++
				t.UpdatedAt = time.Now()
				s.transactions[id] = t
			}
		}
		return nil
	})
}
