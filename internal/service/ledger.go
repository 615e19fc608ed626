package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
)

// Движения баланса всегда выполняются внутри транзакции uow вместе с записью в журнале.

func debitInTx(
	ctx context.Context,
	tx uow.TX,
	userID int64,
	amount int64,
	reason domain.LedgerReasonType,
) (int64, error) {
	userRepo, userRepoErr := uow.GetAs[UserRepository](tx, repoargs.UserRepoName)
	if userRepoErr != nil {
		return 0, userRepoErr //nolint:wrapcheck
	}
	balance, err := userRepo.DebitBalance(ctx, userID, amount)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}
	if jErr := writeJournal(ctx, tx, repoargs.CreateLedgerEntry{
		UserID:    userID,
		Direction: domain.DirectionDebit,
		Reason:    reason,
		Amount:    amount,
	}); jErr != nil {
		return 0, jErr
	}
	return balance, nil
}

func creditInTx(
	ctx context.Context,
	tx uow.TX,
	userID int64,
	amount int64,
	reason domain.LedgerReasonType,
	transactionID *int64,
) (int64, error) {
	userRepo, userRepoErr := uow.GetAs[UserRepository](tx, repoargs.UserRepoName)
	if userRepoErr != nil {
		return 0, userRepoErr //nolint:wrapcheck
	}
	balance, err := userRepo.CreditBalance(ctx, userID, amount)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}
	if jErr := writeJournal(ctx, tx, repoargs.CreateLedgerEntry{
		UserID:        userID,
		TransactionID: transactionID,
		Direction:     domain.DirectionCredit,
		Reason:        reason,
		Amount:        amount,
	}); jErr != nil {
		return 0, jErr
	}
	return balance, nil
}

func writeJournal(ctx context.Context, tx uow.TX, entry repoargs.CreateLedgerEntry) error {
	ledgerRepo, ledgerRepoErr := uow.GetAs[LedgerRepository](tx, repoargs.LedgerRepoName)
	if ledgerRepoErr != nil {
		return ledgerRepoErr //nolint:wrapcheck
	}
	if _, err := ledgerRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("writing %s journal entry: %w", entry.Direction, err)
	}
	return nil
}
