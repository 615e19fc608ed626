package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/imagify/internal/config"
	"github.com/fsdevblog/imagify/internal/ratelimit"
	"github.com/fsdevblog/imagify/internal/repository/pgrepo"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/internal/service"
	"github.com/fsdevblog/imagify/internal/transport/api"
	"github.com/fsdevblog/imagify/internal/transport/gateway"
	"github.com/fsdevblog/imagify/internal/transport/imagegen"
	"github.com/fsdevblog/imagify/internal/transport/reconcile"
	"github.com/fsdevblog/imagify/pkg/uow"
	"github.com/sirupsen/logrus"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

// Run запускает приложение и блокируется до SIGINT/SIGTERM. При остановке по сигналу возвращает context.Canceled.
func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.run(notifyCtx)
}

func (a *App) run(notifyCtx context.Context) error {
	a.Logger.Infof("Starting app with config: %s", a.Config)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %w", connErr)
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %w", uowErr)
	}

	paymentGateway := gateway.New(
		a.Config.PaymentGatewayURL,
		a.Config.PaymentKeyID,
		a.Config.PaymentKeySecret,
		a.Config.PaymentGatewayTimeout,
	)

	services, sErr := service.Factory(unitOfWork, service.FactoryArgs{
		JWTSecret:            []byte(a.Config.JWTUserSecret),
		PasswordCost:         a.Config.PasswordCost,
		SignupCredits:        a.Config.SignupCredits,
		ImageGenerator:       imagegen.New(a.Config.ImageAPIURL, a.Config.ImageAPIKey, a.Config.ImageAPITimeout),
		PaymentGateway:       paymentGateway,
		Currency:             a.Config.PaymentCurrency,
		ReconcileMaxAttempts: a.Config.ReconcileMaxAttempts,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %w", sErr)
	}

	healthChecks := map[string]api.Pinger{"postgres": conn}
	limiter, closeLimiter := a.initRateLimiter(notifyCtx)
	defer closeLimiter()
	if pinger, ok := limiter.(api.Pinger); ok {
		healthChecks["redis"] = pinger
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:             a.Logger,
		UserService:        services.UserService,
		CreditService:      services.CreditService,
		ImageService:       services.ImageService,
		PaymentService:     services.PaymentService,
		RateLimiter:        limiter,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		HealthChecks:       healthChecks,
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %w", routerErr)
	}

	srv := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		if runErr := srv.ListenAndServe(); runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			errChan <- runErr
		}
	}()

	processor := reconcile.New(services.PaymentService, paymentGateway, a.Logger).
		SetWorkers(a.Config.ReconcileWorkers).
		SetLimitPerIteration(a.Config.ReconcileBatch).
		SetInterval(a.Config.ReconcileInterval)

	go processor.Run(notifyCtx)

	select {
	case <-notifyCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			a.Logger.WithError(shutdownErr).Error("http server shutdown")
		}
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

// initRateLimiter лимитер генерации изображений. При недоступном redis используется лимитер в памяти.
func (a *App) initRateLimiter(ctx context.Context) (ratelimit.Limiter, func()) {
	noop := func() {}
	memory := ratelimit.NewMemory(a.Config.GenerateRatePerMinute, a.Config.GenerateBurst)
	if a.Config.RedisURL == "" {
		return memory, noop
	}

	redisLimiter, err := ratelimit.NewRedis(ctx, a.Config.RedisURL, a.Config.GenerateRatePerMinute, a.Config.GenerateBurst)
	if err != nil {
		a.Logger.WithError(err).Warn("redis is unavailable, falling back to in-memory rate limiter")
		return memory, noop
	}
	return redisLimiter, func() {
		if closeErr := redisLimiter.Close(); closeErr != nil {
			a.Logger.WithError(closeErr).Warn("close redis limiter")
		}
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	// user repo
	userRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(repoargs.UserRepoName, userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %w", regErr)
	}

	// transaction repo
	transactionRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewTransactionRepository(dbtx)
	}
	if regErr := unitOfWork.Register(repoargs.TransactionRepoName, transactionRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %w", regErr)
	}

	// ledger repo
	ledgerRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewLedgerRepository(dbtx)
	}
	if regErr := unitOfWork.Register(repoargs.LedgerRepoName, ledgerRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %w", regErr)
	}

	return unitOfWork, nil
}
