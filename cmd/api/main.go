package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openvenue/gatepass/internal/app"
	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/config"
	"github.com/openvenue/gatepass/internal/storage/postgres"
	transporthttp "github.com/openvenue/gatepass/internal/transport/http"
	"github.com/openvenue/gatepass/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info(".env not loaded", zap.Error(err))
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}
	if cfg.DatabaseURI == "" {
		logger.Fatal("DATABASE_URI is required")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURI)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	clk := clock.NewSystem()
	eventSvc := app.NewEventService(postgres.NewEventRepository(pool), clk)
	tierSvc := app.NewTierService(postgres.NewTierRepository(pool), clk)
	redemptionSvc := app.NewRedemptionService(postgres.NewRedemptionRepository(pool), clk)
	credentialSvc := app.NewCredentialService(postgres.NewCredentialRepository(pool), clk)
	marketSvc := app.NewMarketService(postgres.NewMarketRepository(pool), clk)

	h := transporthttp.NewHandler(eventSvc, tierSvc, redemptionSvc, credentialSvc, marketSvc, logger)
	router := h.Router(parseCSV(cfg.CORSOrigins))

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", zap.String("addr", cfg.RunAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received, stopping server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("terminated", zap.Error(err))
	}
	logger.Info("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
