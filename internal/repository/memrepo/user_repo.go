package memrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
)

type UserRepository struct {
	conn *conn
}

func (r *UserRepository) CreateUser(_ context.Context, args repoargs.CreateUser) (*domain.User, error) {
	var user domain.User
	err := r.conn.exec(func(s *store) error {
		for _, u := range s.users {
			if u.Email == args.Email {
				return fmt.Errorf("[memrepo/creating user] %w", domain.ErrDuplicateKey)
			}
		}
		if args.CreditBalance < 0 {
			return fmt.Errorf("[memrepo/creating user] negative balance: %w", domain.ErrUnknown)
		}
		s.userSeq++
		now := time.Now()
		user = domain.User{
			ID:                s.userSeq,
			CreatedAt:         now,
			UpdatedAt:         now,
			Name:              args.Name,
			Email:             args.Email,
			EncryptedPassword: args.Password,
			CreditBalance:     args.CreditBalance,
		}
		s.users[user.ID] = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.conn.exec(func(s *store) error {
		for _, u := range s.users {
			if u.Email == email {
				user = &u
				return nil
			}
		}
		return fmt.Errorf("[memrepo/finding user by email %s] %w", email, domain.ErrRecordNotFound)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindUserByID(_ context.Context, userID int64) (*domain.User, error) {
	var user domain.User
	err := r.conn.exec(func(s *store) error {
		u, ok := s.users[userID]
		if !ok {
			return fmt.Errorf("[memrepo/finding user by id %d] %w", userID, domain.ErrRecordNotFound)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DebitBalance списывает amount кредитов только при достаточном балансе.
func (r *UserRepository) DebitBalance(_ context.Context, userID int64, amount int64) (int64, error) {
	var balance int64
	err := r.conn.exec(func(s *store) error {
		u, ok := s.users[userID]
		if !ok {
			return fmt.Errorf("[memrepo/debiting credits from user %d] %w", userID, domain.ErrRecordNotFound)
		}
		if u.CreditBalance < amount {
			return domain.ErrInsufficientCredit
		}
		u.CreditBalance -= amount
		u.UpdatedAt = time.Now()
		s.users[userID] = u
		balance = u.CreditBalance
		return nil
	})
	return balance, err
}

func (r *UserRepository) CreditBalance(_ context.Context, userID int64, amount int64) (int64, error) {
	var balance int64
	err := r.conn.exec(func(s *store) error {
		u, ok := s.users[userID]
		if !ok {
			return fmt.Errorf("[memrepo/crediting credits to user %d] %w", userID, domain.ErrRecordNotFound)
		}
		u.CreditBalance += amount
		u.UpdatedAt = time.Now()
		s.users[userID] = u
		balance = u.CreditBalance
		return nil
	})
	return balance, err
}
