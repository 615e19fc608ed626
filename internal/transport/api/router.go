package api

import (
	"time"

	"github.com/fsdevblog/imagify/internal/ratelimit"
	"github.com/fsdevblog/imagify/internal/transport/api/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
	// ImageServiceTimeout запрос генерации ждет внешний API изображений.
	ImageServiceTimeout   = 45 * time.Second
	PaymentServiceTimeout = 15 * time.Second
)

const (
	RouteGroup          = "/api"
	RegisterRoute       = "/user/register"
	LoginRoute          = "/user/login"
	CreditsRoute        = "/user/credits"
	CreditsHistoryRoute = "/user/credits/history"
	GenerateImageRoute  = "/image/generate-image"
	PayRoute            = "/user/pay"
	VerifyPaymentRoute  = "/user/verify-payment"
	HealthRoute         = "/health"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	UserService    UserServicer
	CreditService  CreditServicer
	ImageService   ImageServicer
	PaymentService PaymentServicer
	// RateLimiter ограничивает генерацию изображений. nil - без ограничений.
	RateLimiter        ratelimit.Limiter
	CORSAllowedOrigins []string
	HealthChecks       map[string]Pinger
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(cors.New(corsConfig(args.CORSAllowedOrigins)))
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.UserService)
	creditsHandler := NewCreditsHandler(args.CreditService)
	imageHandler := NewImageHandler(args.ImageService)
	paymentHandler := NewPaymentHandler(args.PaymentService)
	healthHandler := NewHealthHandler(args.HealthChecks)

	api := r.Group(RouteGroup)

	api.GET(HealthRoute, healthHandler.Index)
	api.POST(RegisterRoute, authHandler.Register)
	api.POST(LoginRoute, authHandler.Login)

	api.Use(middlewares.AuthRequired(args.UserService))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.GET(CreditsRoute, creditsHandler.Index)
	api.GET(CreditsHistoryRoute, creditsHandler.History)

	generate := []gin.HandlerFunc{imageHandler.Generate}
	if args.RateLimiter != nil {
		l := args.Logger
		if l == nil {
			l = logrus.StandardLogger()
		}
		generate = append([]gin.HandlerFunc{middlewares.RateLimit(args.RateLimiter, l)}, generate...)
	}
	api.POST(GenerateImageRoute, generate...)

	api.POST(PayRoute, paymentHandler.Pay)
	api.POST(VerifyPaymentRoute, paymentHandler.VerifyPayment)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middlewares.LegacyTokenHeader,
		middlewares.RequestIDHeader)
	cfg.ExposeHeaders = []string{"Authorization", middlewares.RequestIDHeader, "Retry-After",
		"X-RateLimit-Remaining"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
