package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/leksBezdar/AsQi-API/config"
	"github.com/leksBezdar/AsQi-API/db"
	"github.com/leksBezdar/AsQi-API/internal/auth/handler"
	repo "github.com/leksBezdar/AsQi-API/internal/auth/repository/postgres"
	"github.com/leksBezdar/AsQi-API/internal/auth/service"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer logger.Sync() //nolint:errcheck

	pool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	clock := service.SystemClock{}
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryDays, clock)
	sessionService := service.NewSessionService(repo.NewSessionRepository(pool), tokenService,
		clock, cfg.AllowMultiSession, logger)
	userService := service.NewUserService(repo.NewUserRepository(pool), sessionService,
		tokenService, service.NewPasswordHasher(), cfg, clock, logger)
	authHandler := handler.NewAuthHandler(userService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	if err := app.Listen(cfg.Addr()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}

	return logger
}
