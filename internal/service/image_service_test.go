package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/internal/service/mocks"
	"github.com/fsdevblog/imagify/pkg/uow"
	uowmocks "github.com/fsdevblog/imagify/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type ImageServiceTestSuite struct {
	suite.Suite
	mockUOW        *uowmocks.MockUOW
	mockTX         *uowmocks.MockTX
	mockUserRepo   *mocks.MockUserRepository
	mockLedgerRepo *mocks.MockLedgerRepository
	mockGenerator  *mocks.MockImageGenerator
	imageService   *ImageService
}

func TestImageServiceSuite(t *testing.T) {
	suite.Run(t, new(ImageServiceTestSuite))
}

func (s *ImageServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockTX = uowmocks.NewMockTX(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)
	s.mockLedgerRepo = mocks.NewMockLedgerRepository(mockCtrl)
	s.mockGenerator = mocks.NewMockImageGenerator(mockCtrl)

	s.mockUOW.EXPECT().GetRepository(repoargs.UserRepoName).Return(s.mockUserRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).AnyTimes()
	s.mockTX.EXPECT().Get(repoargs.UserRepoName).Return(s.mockUserRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(repoargs.LedgerRepoName).Return(s.mockLedgerRepo, nil).AnyTimes()

	imageService, err := NewImageService(s.mockUOW, s.mockGenerator)
	s.Require().NoError(err)
	s.imageService = imageService
}

func (s *ImageServiceTestSuite) TestGenerateOK() {
	prompt := gofakeit.Adjective() + " " + gofakeit.Animal()
	png := []byte{0x89, 'P', 'N', 'G'}

	gomock.InOrder(
		s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), int64(1)).
			Return(&domain.User{ID: 1, CreditBalance: 5}, nil),
		s.mockGenerator.EXPECT().Generate(gomock.Any(), prompt).Return(png, "image/png", nil),
		s.mockUserRepo.EXPECT().DebitBalance(gomock.Any(), int64(1), ImageCost).Return(int64(4), nil),
		s.mockLedgerRepo.EXPECT().Create(gomock.Any(), gomock.Eq(repoargs.CreateLedgerEntry{
			UserID:    1,
			Direction: domain.DirectionDebit,
			Reason:    domain.LedgerReasonImage,
			Amount:    ImageCost,
		})).Return(&domain.LedgerEntry{ID: 1}, nil),
	)

	img, err := s.imageService.Generate(s.T().Context(), 1, "  "+prompt+"  ")
	s.Require().NoError(err)
	s.Equal(png, img.Data)
	s.Equal("image/png", img.ContentType)
	s.Equal(int64(4), img.CreditBalance)
}

func (s *ImageServiceTestSuite) TestGenerateErrors() {
	prompt := "a cat in a hat"

	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), int64(2)).
		Return(&domain.User{ID: 2, CreditBalance: 0}, nil)
	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), int64(3)).
		Return(nil, domain.ErrRecordNotFound)
	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), int64(4)).
		Return(&domain.User{ID: 4, CreditBalance: 3}, nil)
	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), int64(5)).
		Return(&domain.User{ID: 5, CreditBalance: 1}, nil)

	// Внешний API недоступен для юзера 4.
	s.mockGenerator.EXPECT().Generate(gomock.Any(), "upstream down").
		Return(nil, "", errors.New("connection refused"))
	// Юзер 5 проиграл гонку за последний кредит.
	s.mockGenerator.EXPECT().Generate(gomock.Any(), "race").
		Return([]byte("png"), "image/png", nil)
	s.mockUserRepo.EXPECT().DebitBalance(gomock.Any(), int64(5), ImageCost).
		Return(int64(0), domain.ErrInsufficientCredit)

	cases := []struct {
		name    string
		userID  int64
		prompt  string
		wantErr error
	}{
		{name: "empty prompt", userID: 1, prompt: "", wantErr: domain.ErrValidation},
		{name: "blank prompt", userID: 1, prompt: "   \t", wantErr: domain.ErrValidation},
		{name: "too long prompt", userID: 1, prompt: strings.Repeat("a", MaxPromptLength+1), wantErr: domain.ErrValidation},
		{name: "no user id", userID: 0, prompt: prompt, wantErr: domain.ErrValidation},
		{name: "zero balance", userID: 2, prompt: prompt, wantErr: domain.ErrInsufficientCredit},
		{name: "unknown user", userID: 3, prompt: prompt, wantErr: domain.ErrRecordNotFound},
		{name: "upstream failure", userID: 4, prompt: "upstream down", wantErr: domain.ErrUpstream},
		{name: "lost debit race", userID: 5, prompt: "race", wantErr: domain.ErrInsufficientCredit},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			img, err := s.imageService.Generate(s.T().Context(), t.userID, t.prompt)
			s.Require().ErrorIs(err, t.wantErr)
			s.Nil(img)
		})
	}
}
