package service

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/internal/service/mocks"
	"github.com/fsdevblog/imagify/internal/service/tokens"
	"github.com/fsdevblog/imagify/pkg/uow"
	uowmocks "github.com/fsdevblog/imagify/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	suite.Suite
	mockUOW        *uowmocks.MockUOW
	mockTX         *uowmocks.MockTX
	mockUserRepo   *mocks.MockUserRepository
	mockLedgerRepo *mocks.MockLedgerRepository
	mockPsswd      *mocks.MockPasswordHasher
	jwtSecret      []byte
	userService    *UserService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)
	s.mockLedgerRepo = mocks.NewMockLedgerRepository(mockCtrl)
	s.mockPsswd = mocks.NewMockPasswordHasher(mockCtrl)
	s.mockTX = uowmocks.NewMockTX(mockCtrl)

	s.jwtSecret = []byte("secret")

	// Мок получения репозитория из uow. Выполняется в инициализации сервиса.
	s.mockUOW.EXPECT().GetRepository(repoargs.UserRepoName).
		Return(s.mockUserRepo, nil).AnyTimes()

	// Мок uow.
	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).AnyTimes()

	s.mockTX.EXPECT().Get(repoargs.UserRepoName).Return(s.mockUserRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(repoargs.LedgerRepoName).Return(s.mockLedgerRepo, nil).AnyTimes()

	userService, servErr := NewUserService(s.mockUOW, s.jwtSecret, s.mockPsswd, 5)
	s.Require().NoError(servErr)
	s.userService = userService
}

func (s *UserServiceTestSuite) TestLogin() {
	savedEmail := "jane@example.com"
	argsOk := LoginUserArgs{Email: "  Jane@Example.com ", Password: "<PASSWORD>"}
	argsWrongEmail := LoginUserArgs{Email: "wrong@example.com", Password: "<PASSWORD>"}
	argsWrongPass := LoginUserArgs{Email: savedEmail, Password: "wrong pass"}

	validHashPassword := "hash ok"

	savedUser := domain.User{
		ID:                1,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
		Name:              "Jane",
		Email:             savedEmail,
		EncryptedPassword: validHashPassword,
		CreditBalance:     5,
	}

	// Мок для сравнения пароля.
	s.mockPsswd.EXPECT().ComparePassword(argsOk.Password, validHashPassword).Return(true)
	s.mockPsswd.EXPECT().ComparePassword(argsWrongPass.Password, validHashPassword).Return(false)

	// Мок репозитория.
	s.mockUserRepo.EXPECT().
		FindUserByEmail(gomock.Any(), savedEmail).
		Return(&savedUser, nil).Times(2)

	s.mockUserRepo.EXPECT().
		FindUserByEmail(gomock.Any(), argsWrongEmail.Email).
		Return(nil, domain.ErrRecordNotFound)

	// Email не по формату просто не находится среди зарегистрированных.
	s.mockUserRepo.EXPECT().
		FindUserByEmail(gomock.Any(), "foo").
		Return(nil, domain.ErrRecordNotFound)

	cases := []struct {
		name    string
		args    LoginUserArgs
		wantErr error
	}{
		{name: "ok", args: argsOk},
		{name: "not registered", args: argsWrongEmail, wantErr: domain.ErrNotRegistered},
		{
			name:    "malformed email",
			args:    LoginUserArgs{Email: "Foo", Password: "<PASSWORD>"},
			wantErr: domain.ErrNotRegistered,
		},
		{name: "wrong password", args: argsWrongPass, wantErr: domain.ErrInvalidCredentials},
		{name: "empty email", args: LoginUserArgs{Password: "<PASSWORD>"}, wantErr: domain.ErrValidation},
		{name: "empty password", args: LoginUserArgs{Email: savedEmail}, wantErr: domain.ErrValidation},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			user, tokenStr, err := s.userService.Login(s.T().Context(), t.args)
			s.Require().ErrorIs(err, t.wantErr)

			if t.wantErr == nil {
				s.Require().NotNil(user)
				s.Equal(savedUser.ID, user.ID)
				s.NotEmpty(tokenStr)

				claims, tokenErr := tokens.ValidateUserJWT(tokenStr, s.jwtSecret)
				s.Require().NoError(tokenErr)
				s.Equal(savedUser.ID, claims.UserID)
			} else {
				s.Nil(user)
				s.Empty(tokenStr)
			}
		})
	}
}

func (s *UserServiceTestSuite) TestRegister() {
	argsOk := RegisterUserArgs{Name: "Jane", Email: "Jane@Example.com", Password: "<PASSWORD>"}
	argsDuplicate := RegisterUserArgs{Name: "John", Email: "dup@example.com", Password: "<PASSWORD>"}

	validHashedPassword := "hashedPassword"

	createdUser := domain.User{
		ID:                1,
		Name:              argsOk.Name,
		Email:             "jane@example.com",
		EncryptedPassword: validHashedPassword,
		CreditBalance:     5,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	// Мок хеширования пароля.
	s.mockPsswd.EXPECT().HashPassword(argsOk.Password).Return(validHashedPassword, nil).Times(2)

	// Мок репозитория.
	s.mockUserRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Eq(repoargs.CreateUser{
			Name:          argsOk.Name,
			Email:         "jane@example.com",
			Password:      validHashedPassword,
			CreditBalance: 5,
		})).
		Return(&createdUser, nil)

	s.mockUserRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Eq(repoargs.CreateUser{
			Name:          argsDuplicate.Name,
			Email:         argsDuplicate.Email,
			Password:      validHashedPassword,
			CreditBalance: 5,
		})).
		Return(nil, domain.ErrDuplicateKey)

	// Стартовые кредиты попадают в журнал.
	s.mockLedgerRepo.EXPECT().
		Create(gomock.Any(), gomock.Eq(repoargs.CreateLedgerEntry{
			UserID:    createdUser.ID,
			Direction: domain.DirectionCredit,
			Reason:    domain.LedgerReasonSignup,
			Amount:    5,
		})).
		Return(&domain.LedgerEntry{ID: 1}, nil)

	cases := []struct {
		name      string
		args      RegisterUserArgs
		wantErr   error
		wantUser  *domain.User
		wantToken bool
	}{
		{name: "ok", args: argsOk, wantUser: &createdUser, wantToken: true},
		{name: "duplicate email", args: argsDuplicate, wantErr: domain.ErrDuplicateEmail},
		{
			name:    "empty name",
			args:    RegisterUserArgs{Email: gofakeit.Email(), Password: "<PASSWORD>"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "bad email",
			args:    RegisterUserArgs{Name: "Jane", Email: "not an email", Password: "<PASSWORD>"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "short password",
			args:    RegisterUserArgs{Name: "Jane", Email: gofakeit.Email(), Password: "123"},
			wantErr: domain.ErrValidation,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			user, tokenStr, err := s.userService.Register(s.T().Context(), t.args)

			s.Require().ErrorIs(err, t.wantErr)
			s.Equal(t.wantUser, user)

			if t.wantToken {
				s.Require().NotEmpty(tokenStr)

				claims, tokenErr := tokens.ValidateUserJWT(tokenStr, s.jwtSecret)
				s.Require().NoError(tokenErr)
				s.Equal(user.ID, claims.UserID)
			} else {
				s.Empty(tokenStr)
			}
		})
	}
}

func (s *UserServiceTestSuite) TestAuthenticate() {
	valid, err := tokens.GenerateUserJWT(7, time.Hour, s.jwtSecret)
	s.Require().NoError(err)

	expired, expErr := tokens.GenerateUserJWT(7, -time.Hour, s.jwtSecret)
	s.Require().NoError(expErr)

	foreign, fErr := tokens.GenerateUserJWT(7, time.Hour, []byte("foreign"))
	s.Require().NoError(fErr)

	cases := []struct {
		name       string
		token      string
		wantUserID int64
		wantErr    error
	}{
		{name: "ok", token: valid, wantUserID: 7},
		{name: "missing", token: "", wantErr: domain.ErrUnauthorized},
		{name: "malformed", token: "abc", wantErr: domain.ErrUnauthorized},
		{name: "expired", token: expired, wantErr: domain.ErrUnauthorized},
		{name: "bad signature", token: foreign, wantErr: domain.ErrUnauthorized},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			userID, authErr := s.userService.Authenticate(t.token)
			s.Require().ErrorIs(authErr, t.wantErr)
			s.Equal(t.wantUserID, userID)
		})
	}
}
