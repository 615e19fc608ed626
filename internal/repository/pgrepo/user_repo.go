package pgrepo

import (
	"context"
	"errors"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, created_at, updated_at, name, email, encrypted_password, credit_balance`

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// CreateUser создает юзера в базе данных. В случае конфликта email возвращает ошибку domain.ErrDuplicateKey,
// во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error) {
	row := u.conn.QueryRow(ctx,
		`INSERT INTO users (name, email, encrypted_password, credit_balance)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.Name, user.Email, user.Password, user.CreditBalance,
	)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user")
	}
	return dbUser, nil
}

// FindUserByEmail ищет юзера по email. Возвращает ошибку domain.ErrRecordNotFound если запись не найдена.
func (u *UserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by email %s", email)
	}
	return dbUser, nil
}

// FindUserByID ищет юзера по id. Возвращает ошибку domain.ErrRecordNotFound если запись не найдена.
func (u *UserRepository) FindUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by id %d", userID)
	}
	return dbUser, nil
}

// DebitBalance списывает amount кредитов одним условным UPDATE, баланс не может уйти в минус.
// Если условие не выполнилось, возвращает domain.ErrInsufficientCredit для существующего юзера
// и domain.ErrRecordNotFound для несуществующего.
func (u *UserRepository) DebitBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	var balance int64
	err := u.conn.QueryRow(ctx,
		`UPDATE users SET credit_balance = credit_balance - $2, updated_at = now()
		WHERE id = $1 AND credit_balance >= $2
		RETURNING credit_balance`,
		userID, amount,
	).Scan(&balance)

	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, convertErr(err, "debiting %d credits from user %d", amount, userID)
	}

	exists, existsErr := u.exists(ctx, userID)
	if existsErr != nil {
		return 0, existsErr
	}
	if !exists {
		return 0, convertErr(pgx.ErrNoRows, "debiting credits from user %d", userID)
	}
	return 0, domain.ErrInsufficientCredit
}

// CreditBalance увеличивает баланс юзера на amount кредитов.
func (u *UserRepository) CreditBalance(ctx context.Context, userID int64, amount int64) (int64, error) {
	var balance int64
	err := u.conn.QueryRow(ctx,
		`UPDATE users SET credit_balance = credit_balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING credit_balance`,
		userID, amount,
	).Scan(&balance)
	if err != nil {
		return 0, convertErr(err, "crediting %d credits to user %d", amount, userID)
	}
	return balance, nil
}

func (u *UserRepository) exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	if err := u.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).
		Scan(&exists); err != nil {
		return false, convertErr(err, "checking user %d exists", userID)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Name,
		&user.Email,
		&user.EncryptedPassword,
		&user.CreditBalance,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &user, nil
}
