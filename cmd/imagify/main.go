package main

import (
	"context"
	"errors"
	"os"

	"github.com/fsdevblog/imagify/internal/app"
	"github.com/fsdevblog/imagify/internal/config"
	"github.com/fsdevblog/imagify/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// .env необязателен, переменные окружения могут быть заданы снаружи. Загружается до логгера,
	// чтобы LOG_LEVEL и GIN_MODE из него тоже учитывались.
	envErr := godotenv.Load()

	l := logger.New(os.Stdout)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		l.WithError(envErr).Warn("load .env")
	}
	conf := config.MustLoadConfig()

	if err := app.New(conf, l).Run(); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("graceful shutdown")
			os.Exit(0)
		}
		panic(err)
	}
}
