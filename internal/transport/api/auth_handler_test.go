package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/service"
	"github.com/fsdevblog/imagify/internal/transport/api/testutils"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	handlerSuite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) TestRegister() {
	name := gofakeit.Name()
	email := "user-" + gofakeit.UUID() + "@example.com"
	takenEmail := "taken@example.com"

	s.users.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Name: name, Email: email, Password: "secret1"}).
		Return(&domain.User{ID: 10, Name: name, Email: email, CreditBalance: 5}, "jwt-token", nil).
		Times(1)
	s.users.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Name: name, Email: takenEmail, Password: "secret1"}).
		Return(nil, "", fmt.Errorf("register user: %w", domain.ErrDuplicateEmail)).
		Times(1)

	cases := []struct {
		name       string
		payload    any
		wantStatus int
		wantError  string
	}{
		{
			name:       "all ok",
			payload:    UserRegisterParams{Name: name, Email: email, Password: "secret1"},
			wantStatus: http.StatusCreated,
		}, {
			name:       "duplicate email",
			payload:    UserRegisterParams{Name: name, Email: takenEmail, Password: "secret1"},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrDuplicateEmail.Error(),
		}, {
			name:       "invalid email",
			payload:    UserRegisterParams{Name: name, Email: "not-an-email", Password: "secret1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: email must be a valid email",
		}, {
			name:       "short password",
			payload:    UserRegisterParams{Name: name, Email: email, Password: "123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: password must be at least 6 characters",
		}, {
			name:       "blank name",
			payload:    UserRegisterParams{Name: "   ", Email: email, Password: "secret1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: name is required",
		}, {
			name:       "malformed body",
			payload:    []byte("{"),
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: invalid request body",
		},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.request(http.MethodPost, RouteGroup+RegisterRoute, t.payload)
			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantError != "" {
				s.Equal(t.wantError, s.errorText(res))
				return
			}
			var body AuthResponse
			s.decode(res, &body)
			s.Equal("jwt-token", body.Token)
			s.Equal(email, body.User.Email)
			s.Equal("Bearer jwt-token", res.Header.Get("Authorization"))
		})
	}
}

func (s *AuthHandlerTestSuite) TestLogin() {
	email := "user-" + gofakeit.UUID() + "@example.com"
	unknownEmail := "unknown@example.com"

	s.users.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Email: email, Password: "secret1"}).
		Return(&domain.User{ID: 10, Name: "John", Email: email}, "jwt-token", nil).
		Times(1)
	s.users.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Email: email, Password: "wrong-password"}).
		Return(nil, "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)).
		Times(1)
	s.users.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Email: unknownEmail, Password: "secret1"}).
		Return(nil, "", fmt.Errorf("login: %w", domain.ErrNotRegistered)).
		Times(1)

	cases := []struct {
		name       string
		payload    any
		wantStatus int
		wantError  string
	}{
		{
			name:       "all ok",
			payload:    UserLoginParams{Email: email, Password: "secret1"},
			wantStatus: http.StatusOK,
		}, {
			name:       "wrong password",
			payload:    UserLoginParams{Email: email, Password: "wrong-password"},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInvalidCredentials.Error(),
		}, {
			name:       "not registered",
			payload:    UserLoginParams{Email: unknownEmail, Password: "secret1"},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrNotRegistered.Error(),
		}, {
			name:       "missing password",
			payload:    UserLoginParams{Email: email},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: password is required",
		},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.request(http.MethodPost, RouteGroup+LoginRoute, t.payload)
			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantError != "" {
				s.Equal(t.wantError, s.errorText(res))
				return
			}
			var body AuthResponse
			s.decode(res, &body)
			s.Equal("jwt-token", body.Token)
			s.Equal(int64(10), body.User.ID)
		})
	}
}

func (s *AuthHandlerTestSuite) TestErrorsAsPlainText() {
	res := s.request(http.MethodGet, RouteGroup+CreditsRoute, nil, testutils.WithHeader("Accept", "text/plain"))
	s.Equal(http.StatusUnauthorized, res.StatusCode)
	s.Contains(res.Header.Get("Content-Type"), "text/plain")
}

func (s *AuthHandlerTestSuite) TestCORSPreflight() {
	res := s.request(http.MethodOptions, RouteGroup+LoginRoute, nil,
		testutils.WithHeader("Origin", s.corsOrigin),
		testutils.WithHeader("Access-Control-Request-Method", http.MethodPost),
		testutils.WithHeader("Access-Control-Request-Headers", "token"),
	)
	s.Equal(http.StatusNoContent, res.StatusCode)
	s.Equal(s.corsOrigin, res.Header.Get("Access-Control-Allow-Origin"))
}
