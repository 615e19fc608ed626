package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
)

const DefaultHistoryLimit uint = 50

type CreditService struct {
	uow        uow.UOW
	userRepo   UserRepository
	ledgerRepo LedgerRepository
}

func NewCreditService(u uow.UOW) (*CreditService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, repoargs.UserRepoName)
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	ledgerRepo, ledgerRepoErr := uow.GetRepositoryAs[LedgerRepository](u, repoargs.LedgerRepoName)
	if ledgerRepoErr != nil {
		return nil, ledgerRepoErr //nolint:wrapcheck
	}
	return &CreditService{
		uow:        u,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
	}, nil
}

// GetAccount возвращает юзера вместе с текущим балансом кредитов.
func (c *CreditService) GetAccount(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := c.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting account for user %d: %w", userID, err)
	}
	return user, nil
}

// GetBalance возвращает текущий баланс кредитов юзера.
func (c *CreditService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := c.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.CreditBalance, nil
}

// Debit атомарно списывает amount кредитов. Баланс никогда не уходит в минус: при нехватке возвращается
// domain.ErrInsufficientCredit и ничего не меняется.
func (c *CreditService) Debit(
	ctx context.Context,
	userID int64,
	amount int64,
	reason domain.LedgerReasonType,
) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit amount must be positive", domain.ErrValidation)
	}
	var balance int64
	err := c.uow.Do(ctx, func(ctx context.Context, tx uow.TX) error {
		var dErr error
		balance, dErr = debitInTx(ctx, tx, userID, amount, reason)
		return dErr
	})
	if err != nil {
		return 0, fmt.Errorf("debiting %d credits from user %d: %w", amount, userID, err)
	}
	return balance, nil
}

// Credit начисляет кредиты. transactionID привязывает начисление к оплате, уникальный индекс журнала
// не позволит начислить по одной транзакции дважды.
func (c *CreditService) Credit(
	ctx context.Context,
	userID int64,
	amount int64,
	reason domain.LedgerReasonType,
	transactionID *int64,
) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", domain.ErrValidation)
	}
	var balance int64
	err := c.uow.Do(ctx, func(ctx context.Context, tx uow.TX) error {
		var cErr error
		balance, cErr = creditInTx(ctx, tx, userID, amount, reason, transactionID)
		return cErr
	})
	if err != nil {
		return 0, fmt.Errorf("crediting %d credits to user %d: %w", amount, userID, err)
	}
	return balance, nil
}

// History возвращает последние записи журнала юзера, самые свежие первыми.
func (c *CreditService) History(ctx context.Context, userID int64, limit uint) ([]domain.LedgerEntry, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := c.ledgerRepo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting history for user %d: %w", userID, err)
	}
	return entries, nil
}
