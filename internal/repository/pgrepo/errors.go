package pgrepo

import (
	"errors"
	"fmt"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"

	nonNegativeBalanceConstraint = "users_credit_balance_non_negative"
)

// convertErr приводит ошибку postgres к ошибке слоя репозитория с контекстом msg:
//   - pgx.ErrNoRows и нарушение внешнего ключа - domain.ErrRecordNotFound;
//   - нарушение уникальности - domain.ErrDuplicateKey;
//   - нарушение CHECK неотрицательного баланса - domain.ErrInsufficientCredit;
//   - все остальное - domain.ErrUnknown с оригинальным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	errType := domain.ErrUnknown

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolationCode:
			errType = domain.ErrDuplicateKey
		case pgErr.Code == foreignKeyViolationCode:
			errType = domain.ErrRecordNotFound
		case pgErr.Code == checkViolationCode && pgErr.ConstraintName == nonNegativeBalanceConstraint:
			errType = domain.ErrInsufficientCredit
		}
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, errType, err.Error())
}
