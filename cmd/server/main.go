package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"flowchart_backend/internal/app/di"
	"flowchart_backend/internal/app/router"
	"flowchart_backend/internal/config"
	authadapters "flowchart_backend/internal/feature/auth/adapters"
	authentity "flowchart_backend/internal/feature/auth/domain/entity"
	authhandler "flowchart_backend/internal/feature/auth/transport/handler"
	authusecase "flowchart_backend/internal/feature/auth/usecase"
	flowentity "flowchart_backend/internal/feature/flowchart/domain/entity"
	"flowchart_backend/internal/feature/flowchart/extractor"
	flowhandler "flowchart_backend/internal/feature/flowchart/transport/handler"
	flowusecase "flowchart_backend/internal/feature/flowchart/usecase"
	"flowchart_backend/internal/feature/sociallogin/adapters/linkedin"
	socialhandler "flowchart_backend/internal/feature/sociallogin/transport/handler"
	socialusecase "flowchart_backend/internal/feature/sociallogin/usecase"
	"flowchart_backend/internal/platform/db"
	infrahttp "flowchart_backend/internal/platform/http"
	jwtmw "flowchart_backend/internal/platform/jwt"
	"flowchart_backend/internal/platform/logger"
	infraredis "flowchart_backend/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	logger.New(cfg.LogLevel)

	// db
	gdb, err := db.Open(cfg.Database, &authentity.User{}, &flowentity.FlowChart{})
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	} else if tmp != nil {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}()
	}

	// Object storage
	store, err := di.NewSourceStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if store == nil {
		slog.Warn("object storage not configured, uploaded source files are not kept")
	}

	if cfg.JWT.Secret == "devsecret" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	// Repository
	users := authadapters.NewUserGorm(gdb)
	flowcharts := di.NewFlowChartRepository(gdb, rdb, cfg.Redis.CacheTTL)
	tokens := jwtmw.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	cookie := jwtmw.CookieConfig{Name: cfg.JWT.CookieName, Secure: cfg.JWT.CookieSecure, TTL: cfg.JWT.TTL}

	// Usecase
	authUC := authusecase.NewAuthUsecase(users, tokens)
	flowUC := flowusecase.NewFlowChartUsecase(flowcharts, di.NewGateway(cfg.AI), extractor.New(cfg.AI.ExtractorMode), users, store)
	provider := linkedin.NewProvider(cfg.LinkedIn, infrahttp.NewHTTPClient(cfg.LinkedIn.Timeout))
	socialUC := socialusecase.NewSocialLoginUsecase(provider, users, tokens)

	// Handler
	engine := router.NewRouter(router.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		CookieName:     cfg.JWT.CookieName,
		Verifier:       tokens,
	}, router.Handlers{
		Auth:      authhandler.NewAuthHandler(authUC, cookie),
		LinkedIn:  socialhandler.NewLinkedInHandler(socialUC, cookie, cfg.LinkedIn.FrontendURL),
		FlowChart: flowhandler.NewFlowChartHandler(flowUC, cfg.HTTP.MaxUploadBytes),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}
