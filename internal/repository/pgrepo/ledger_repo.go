package pgrepo

import (
	"context"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, created_at, user_id, transaction_id, direction::text, reason, amount`

type LedgerRepository struct {
	conn uow.DBTX
}

func NewLedgerRepository(conn uow.DBTX) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// Create пишет запись в журнал движения кредитов. Повторное пополнение по одной и той же транзакции
// оплаты упирается в уникальный индекс и возвращает domain.ErrDuplicateKey.
func (l *LedgerRepository) Create(ctx context.Context, entry repoargs.CreateLedgerEntry) (*domain.LedgerEntry, error) {
	row := l.conn.QueryRow(ctx,
		`INSERT INTO ledger_entries (user_id, transaction_id, direction, reason, amount)
		VALUES ($1, $2, $3::ledger_direction_type, $4, $5)
		RETURNING `+ledgerColumns,
		entry.UserID, entry.TransactionID, string(entry.Direction), string(entry.Reason), entry.Amount,
	)
	dbEntry, err := scanLedgerEntry(row)
	if err != nil {
		return nil, convertErr(err, "creating ledger entry for user %d", entry.UserID)
	}
	return dbEntry, nil
}

// GetByUserID возвращает последние limit записей журнала юзера, отсортированные по дате создания по убыванию.
func (l *LedgerRepository) GetByUserID(ctx context.Context, userID int64, limit uint) ([]domain.LedgerEntry, error) {
	safeLimit, limitErr := safeConvertUintToInt32(limit)
	if limitErr != nil {
		return nil, convertErr(limitErr, "converting limit to int32")
	}

	rows, err := l.conn.Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, safeLimit,
	)
	if err != nil {
		return nil, convertErr(err, "getting ledger entries by userID %d", userID)
	}
	defer rows.Close()

	var entries = make([]domain.LedgerEntry, 0)
	for rows.Next() {
		entry, scanErr := scanLedgerEntry(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning ledger entry")
		}
		entries = append(entries, *entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating ledger entries")
	}
	return entries, nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		direction string
		reason    string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.CreatedAt,
		&entry.UserID,
		&entry.TransactionID,
		&direction,
		&reason,
		&entry.Amount,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	entry.Direction = domain.DirectionType(direction)
	entry.Reason = domain.LedgerReasonType(reason)
	return &entry, nil
}
