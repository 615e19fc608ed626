package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/ratelimit"
	"github.com/fsdevblog/imagify/internal/transport/api/testutils"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type ImageHandlerTestSuite struct {
	handlerSuite
}

func TestImageHandlerSuite(t *testing.T) {
	suite.Run(t, new(ImageHandlerTestSuite))
}

func (s *ImageHandlerTestSuite) TestGenerate() {
	prompt := gofakeit.Adjective() + " " + gofakeit.Animal()
	poorPrompt := "a cat without credits"
	brokenPrompt := "upstream goes down"
	png := []byte{0x89, 'P', 'N', 'G'}

	s.images.EXPECT().
		Generate(gomock.Any(), testUserID, prompt).
		Return(&domain.GeneratedImage{Data: png, ContentType: "image/png", CreditBalance: 4}, nil).
		Times(1)
	s.images.EXPECT().
		Generate(gomock.Any(), testUserID, poorPrompt).
		Return(nil, fmt.Errorf("debit: %w", domain.ErrInsufficientCredit)).
		Times(1)
	s.images.EXPECT().
		Generate(gomock.Any(), testUserID, brokenPrompt).
		Return(nil, fmt.Errorf("%w: status 503 from api.example.com", domain.ErrUpstream)).
		Times(1)

	cases := []struct {
		name       string
		token      string
		payload    any
		wantStatus int
		wantError  string
	}{
		{
			name:       "all ok",
			token:      testUserToken,
			payload:    GenerateImageParams{Prompt: prompt},
			wantStatus: http.StatusOK,
		}, {
			name:       "not authorized",
			payload:    GenerateImageParams{Prompt: prompt},
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized",
		}, {
			name:       "empty prompt",
			token:      testUserToken,
			payload:    GenerateImageParams{Prompt: ""},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: prompt is required",
		}, {
			name:       "blank prompt",
			token:      testUserToken,
			payload:    GenerateImageParams{Prompt: " \n\t "},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: prompt is required",
		}, {
			name:       "prompt over bytes under runes",
			token:      testUserToken,
			payload:    GenerateImageParams{Prompt: testutils.GenerateOverBytesUnderRunes(300)},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation error: prompt must not exceed 1000",
		}, {
			name:       "insufficient credit",
			token:      testUserToken,
			payload:    GenerateImageParams{Prompt: poorPrompt},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInsufficientCredit.Error(),
		}, {
			name:       "upstream failure",
			token:      testUserToken,
			payload:    GenerateImageParams{Prompt: brokenPrompt},
			wantStatus: http.StatusInternalServerError,
			wantError:  domain.ErrUpstream.Error(),
		},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.request(http.MethodPost, RouteGroup+GenerateImageRoute, t.payload, bearer(t.token))
			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantError != "" {
				s.Equal(t.wantError, s.errorText(res))
				return
			}

			var body GenerateImageResponse
			s.decode(res, &body)
			s.Equal(int64(4), body.CreditBalance)

			encoded, ok := strings.CutPrefix(body.ResultImage, "data:image/png;base64,")
			s.Require().True(ok, body.ResultImage)
			raw, decodeErr := base64.StdEncoding.DecodeString(encoded)
			s.Require().NoError(decodeErr)
			s.Equal(png, raw)
		})
	}
}

type ImageHandlerRateLimitTestSuite struct {
	handlerSuite
}

func TestImageHandlerRateLimitSuite(t *testing.T) {
	suite.Run(t, new(ImageHandlerRateLimitTestSuite))
}

func (s *ImageHandlerRateLimitTestSuite) SetupTest() {
	// одна генерация в минуту без запаса.
	s.limiter = ratelimit.NewMemory(1, 1)
	s.handlerSuite.SetupTest()
}

func (s *ImageHandlerRateLimitTestSuite) TestGenerateRateLimited() {
	img := &domain.GeneratedImage{Data: []byte("img"), ContentType: "image/png", CreditBalance: 1}
	s.images.EXPECT().Generate(gomock.Any(), testUserID, "first").Return(img, nil).Times(1)
	s.images.EXPECT().Generate(gomock.Any(), testAnotherID, "first").Return(img, nil).Times(1)

	first := s.request(http.MethodPost, RouteGroup+GenerateImageRoute,
		GenerateImageParams{Prompt: "first"}, bearer(testUserToken))
	s.Equal(http.StatusOK, first.StatusCode)

	second := s.request(http.MethodPost, RouteGroup+GenerateImageRoute,
		GenerateImageParams{Prompt: "second"}, bearer(testUserToken))
	s.Equal(http.StatusTooManyRequests, second.StatusCode)
	s.NotEmpty(second.Header.Get("Retry-After"))

	// лимит считается для каждого юзера отдельно.
	another := s.request(http.MethodPost, RouteGroup+GenerateImageRoute,
		GenerateImageParams{Prompt: "first"}, bearer(testAnotherToken))
	s.Equal(http.StatusOK, another.StatusCode)
}
