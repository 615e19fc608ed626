package service

import (
	"fmt"

	"github.com/fsdevblog/imagify/internal/service/psswd"
	"github.com/fsdevblog/imagify/pkg/uow"
)

type AppServices struct {
	UserService    *UserService
	CreditService  *CreditService
	ImageService   *ImageService
	PaymentService *PaymentService
}

// FactoryArgs параметры сервисов. PasswordCost стоимость bcrypt, 0 - bcrypt.DefaultCost.
type FactoryArgs struct {
	JWTSecret            []byte
	PasswordCost         int
	SignupCredits        int64
	ImageGenerator       ImageGenerator
	PaymentGateway       PaymentGateway
	Currency             string
	ReconcileMaxAttempts uint
}

func Factory(unitOfWork uow.UOW, args FactoryArgs) (*AppServices, error) {
	userService, userServiceErr := NewUserService(unitOfWork, args.JWTSecret, psswd.New(args.PasswordCost), args.SignupCredits)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	creditService, creditServiceErr := NewCreditService(unitOfWork)
	if creditServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", creditServiceErr.Error())
	}

	imageService, imageServiceErr := NewImageService(unitOfWork, args.ImageGenerator)
	if imageServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", imageServiceErr.Error())
	}

	paymentService, paymentServiceErr := NewPaymentService(unitOfWork, args.PaymentGateway, args.Currency)
	if paymentServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentServiceErr.Error())
	}
	if args.ReconcileMaxAttempts > 0 {
		paymentService.SetMaxAttempts(args.ReconcileMaxAttempts)
	}

	return &AppServices{
		UserService:    userService,
		CreditService:  creditService,
		ImageService:   imageService,
		PaymentService: paymentService,
	}, nil
}
