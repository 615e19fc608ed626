package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/internal/service/psswd"
	"github.com/fsdevblog/imagify/internal/service/tokens"
	"github.com/fsdevblog/imagify/pkg/uow"
)

const (
	JWTTokenExpire    = 7 * 24 * time.Hour
	MinPasswordLength = 6
)

type UserService struct {
	uow            uow.UOW
	userRepo       UserRepository
	hasher         PasswordHasher
	jwtTokenSecret []byte
	signupCredits  int64
}

func NewUserService(
	u uow.UOW,
	jwtTokenSecret []byte,
	hasher PasswordHasher,
	signupCredits int64,
) (*UserService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, repoargs.UserRepoName)
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	if signupCredits < 0 {
		return nil, fmt.Errorf("%w: signup credits must not be negative", domain.ErrValidation)
	}
	return &UserService{
		uow:            u,
		userRepo:       userRepo,
		hasher:         hasher,
		jwtTokenSecret: jwtTokenSecret,
		signupCredits:  signupCredits,
	}, nil
}

type RegisterUserArgs struct {
	Name     string
	Email    string
	Password string
}

type LoginUserArgs struct {
	Email    string
	Password string
}

// Register создает юзера и начисляет ему стартовые кредиты вместе с записью в журнале в одной транзакции.
// Возвращает созданного юзера и jwt токен.
func (s *UserService) Register(ctx context.Context, args RegisterUserArgs) (*domain.User, string, error) {
	name := strings.TrimSpace(args.Name)
	email, emailErr := normalizeEmail(args.Email)
	if emailErr != nil {
		return nil, "", emailErr
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(args.Password) < MinPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, MinPasswordLength)
	}
	if len(args.Password) > psswd.MaxPasswordBytes {
		return nil, "", fmt.Errorf("%w: password must not exceed %d bytes", domain.ErrValidation, psswd.MaxPasswordBytes)
	}

	password, hashErr := s.hasher.HashPassword(args.Password)
	if hashErr != nil {
		return nil, "", fmt.Errorf("registering user: %s", hashErr.Error())
	}

	var user *domain.User
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, repoargs.UserRepoName)
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}

		var userErr error
		user, userErr = userRepo.CreateUser(c, repoargs.CreateUser{
			Name:          name,
			Email:         email,
			Password:      password,
			CreditBalance: s.signupCredits,
		})
		if userErr != nil {
			if errors.Is(userErr, domain.ErrDuplicateKey) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
			}
			return userErr //nolint:wrapcheck
		}

		if s.signupCredits == 0 {
			return nil
		}
		return writeJournal(c, tx, repoargs.CreateLedgerEntry{
			UserID:    user.ID,
			Direction: domain.DirectionCredit,
			Reason:    domain.LedgerReasonSignup,
			Amount:    s.signupCredits,
		})
	})
	if txErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", txErr)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", tokenErr)
	}
	return user, token, nil
}

// Login ищет юзера по email и сверяет пароль. Возвращает domain.ErrNotRegistered для неизвестного email
// и domain.ErrInvalidCredentials при несовпадении пароля.
func (s *UserService) Login(ctx context.Context, args LoginUserArgs) (*domain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(args.Email))
	if email == "" {
		return nil, "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if args.Password == "" {
		return nil, "", fmt.Errorf("%w: password is required", domain.ErrValidation)
	}

	user, userErr := s.userRepo.FindUserByEmail(ctx, email)
	if userErr != nil {
		if errors.Is(userErr, domain.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("login: %w", domain.ErrNotRegistered)
		}
		return nil, "", fmt.Errorf("login: %w", userErr)
	}

	if !s.hasher.ComparePassword(args.Password, user.EncryptedPassword) {
		return nil, "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("login: %w", tokenErr)
	}
	return user, token, nil
}

// Authenticate возвращает id юзера из токена. Любая проблема с токеном приводит к domain.ErrUnauthorized.
func (s *UserService) Authenticate(token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: token is missing", domain.ErrUnauthorized)
	}
	claims, err := tokens.ValidateUserJWT(token, s.jwtTokenSecret)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnauthorized, err.Error())
	}
	return claims.UserID, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email `%s`", domain.ErrValidation, email)
	}
	return email, nil
}
