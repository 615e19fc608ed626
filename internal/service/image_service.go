package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
)

const (
	// ImageCost стоимость одной генерации в кредитах.
	ImageCost       int64 = 1
	MaxPromptLength       = 1000
)

type ImageService struct {
	uow       uow.UOW
	userRepo  UserRepository
	generator ImageGenerator
}

func NewImageService(u uow.UOW, generator ImageGenerator) (*ImageService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, repoargs.UserRepoName)
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	return &ImageService{
		uow:       u,
		userRepo:  userRepo,
		generator: generator,
	}, nil
}

// Generate генерирует изображение по prompt и списывает за него один кредит.
//
// Баланс проверяется до обращения во внешний API, списание происходит только после успешной генерации.
// Если между проверкой и списанием кредиты закончились (параллельный запрос), изображение отбрасывается
// и возвращается domain.ErrInsufficientCredit.
func (s *ImageService) Generate(ctx context.Context, userID int64, prompt string) (*domain.GeneratedImage, error) {
	prompt = strings.TrimSpace(prompt)
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	if len(prompt) > MaxPromptLength {
		return nil, fmt.Errorf("%w: prompt must not exceed %d bytes", domain.ErrValidation, MaxPromptLength)
	}

	user, userErr := s.userRepo.FindUserByID(ctx, userID)
	if userErr != nil {
		return nil, fmt.Errorf("generating image: %w", userErr)
	}
	if user.CreditBalance < ImageCost {
		return nil, fmt.Errorf("generating image: %w", domain.ErrInsufficientCredit)
	}

	data, contentType, genErr := s.generator.Generate(ctx, prompt)
	if genErr != nil {
		return nil, fmt.Errorf("generating image: %w: %s", domain.ErrUpstream, genErr.Error())
	}

	var balance int64
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var dErr error
		balance, dErr = debitInTx(c, tx, userID, ImageCost, domain.LedgerReasonImage)
		return dErr
	})
	if txErr != nil {
		return nil, fmt.Errorf("charging for image: %w", txErr)
	}

	return &domain.GeneratedImage{
		Data:          data,
		ContentType:   contentType,
		CreditBalance: balance,
	}, nil
}
