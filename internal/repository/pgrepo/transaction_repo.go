package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, created_at, updated_at, user_id, plan, amount::text, currency, credits,
	gateway_order_id, paid, paid_at, attempts`

type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create создает транзакцию оплаты в состоянии PENDING.
func (t *TransactionRepository) Create(
	ctx context.Context,
	args repoargs.CreateTransaction,
) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx,
		`INSERT INTO transactions (user_id, plan, amount, currency, credits)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING `+transactionColumns,
		args.UserID, string(args.Plan), args.Amount.String(), args.Currency, args.Credits,
	)
	tr, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating transaction for user %d", args.UserID)
	}
	return tr, nil
}

// SetGatewayOrderID привязывает заказ платежного шлюза к неоплаченной транзакции.
func (t *TransactionRepository) SetGatewayOrderID(ctx context.Context, id int64, orderID string) error {
	tag, err := t.conn.Exec(ctx,
		`UPDATE transactions SET gateway_order_id = $2, updated_at = now() WHERE id = $1 AND paid = FALSE`,
		id, orderID,
	)
	if err != nil {
		return convertErr(err, "setting gateway order `%s` for transaction %d", orderID, id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "setting gateway order for transaction %d", id)
	}
	return nil
}

func (t *TransactionRepository) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tr, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "finding transaction by id %d", id)
	}
	return tr, nil
}

// MarkPaid переводит транзакцию из PENDING в PAID условным обновлением по paid = false. Из двух конкурентных
// вызовов строку обновит только один, второй получит domain.ErrAlreadyPaid. Для несуществующей транзакции
// вернется domain.ErrRecordNotFound.
func (t *TransactionRepository) MarkPaid(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx,
		`UPDATE transactions SET paid = TRUE, paid_at = now(), updated_at = now()
		WHERE id = $1 AND paid = FALSE
		RETURNING `+transactionColumns,
		id,
	)
	tr, err := scanTransaction(row)
	if err == nil {
		return tr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, convertErr(err, "marking transaction %d paid", id)
	}

	if _, findErr := t.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("[repository/marking transaction %d paid] %w", id, domain.ErrAlreadyPaid)
}

// GetForReconciliation возвращает неоплаченные транзакции с заказом в платежном шлюзе, отсортированные
// по дате создания. Транзакции с числом ошибок >= maxAttempts пропускаются.
func (t *TransactionRepository) GetForReconciliation(
	ctx context.Context,
	limit uint,
	maxAttempts uint,
) ([]domain.Transaction, error) {
	safeLimit, limitErr := safeConvertUintToInt32(limit)
	if limitErr != nil {
		return nil, convertErr(limitErr, "converting limit to int32")
	}
	safeAttempts, attemptsErr := safeConvertUintToInt32(maxAttempts)
	if attemptsErr != nil {
		return nil, convertErr(attemptsErr, "converting max attempts to int32")
	}

	rows, err := t.conn.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE paid = FALSE AND gateway_order_id IS NOT NULL AND attempts < $2
		ORDER BY created_at
		LIMIT $1`,
		safeLimit, safeAttempts,
	)
	if err != nil {
		return nil, convertErr(err, "getting transactions for reconciliation")
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tr, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning transaction for reconciliation")
		}
		transactions = append(transactions, *tr)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating transactions for reconciliation")
	}
	return transactions, nil
}

// IncrementAttempts увеличивает счетчик неудачных попыток сверки для транзакций с указанными id.
func (t *TransactionRepository) IncrementAttempts(ctx context.Context, ids []int64) error {
	if _, err := t.conn.Exec(ctx,
		`UPDATE transactions SET attempts = attempts + 1, updated_at = now() WHERE id = ANY($1) AND paid = FALSE`,
		ids,
	); err != nil {
		return convertErr(err, "incrementing attempts for transactions with ids `%v`", ids)
	}
	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tr             domain.Transaction
		plan           string
		amount         string
		gatewayOrderID *string
		paidAt         *time.Time
		attempts       int32
	)
	if err := row.Scan(
		&tr.ID,
		&tr.CreatedAt,
		&tr.UpdatedAt,
		&tr.UserID,
		&plan,
		&amount,
		&tr.Currency,
		&tr.Credits,
		&gatewayOrderID,
		&tr.Paid,
		&paidAt,
		&attempts,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	dec, decErr := decimal.NewFromString(amount)
	if decErr != nil {
		return nil, fmt.Errorf("parsing amount `%s`: %s", amount, decErr.Error())
	}

	tr.Plan = domain.PlanID(plan)
	tr.Amount = dec
	tr.PaidAt = paidAt
	if gatewayOrderID != nil {
		tr.GatewayOrderID = *gatewayOrderID
	}
	if attempts > 0 {
		tr.Attempts = uint(attempts)
	}
	return &tr, nil
}
