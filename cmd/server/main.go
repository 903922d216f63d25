// Package main runs the gatherings HTTP API.
//
// @title Gatherings API
// @version 1.0
// @description Gathering membership and invitation workflow.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"gatherings/config"
	"gatherings/internal/adapters/auth"
	deliveryhttp "gatherings/internal/delivery/http"
	"gatherings/internal/delivery/http/controllers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"
	"gatherings/internal/metrics"
	"gatherings/internal/repository/memory"
	"gatherings/internal/repository/postgres"
	"gatherings/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gatheringRepo, inviteRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := services.NewGatheringService(
		gatheringRepo,
		inviteRepo,
		services.Options{
			Strictness:           cfg.Strictness(),
			ReinviteAfterDecline: cfg.ReinviteAfterDecline,
		},
		metrics.New(reg),
		logger,
		cfg.ContextTimeout,
	)

	mux := deliveryhttp.NewRouter(
		controllers.NewGatheringController(logger, svc),
		controllers.NewInviteController(logger, svc),
		middleware.RequireAuth(auth.NewJWT(cfg.JWTSecret), logger),
		metrics.Handler(reg),
	)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.StoreDriver, "strictness", cfg.Strictness())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the repositories for the configured driver and a func releasing them.
func openStore(ctx context.Context, cfg *config.Config) (domain.GatheringRepository, domain.InviteRepository, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		store := memory.NewStore()
		return memory.NewGatheringRepository(store), memory.NewInviteRepository(store), func() {}, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DBUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	return postgres.NewGatheringRepository(db), postgres.NewInviteRepository(db), func() { _ = db.Close() }, nil
}
