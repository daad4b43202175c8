package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kamigear/teens-points/internal/config"
	pg "github.com/Kamigear/teens-points/internal/infra/db/postgres"
	"github.com/Kamigear/teens-points/internal/infra/logging"
	"github.com/Kamigear/teens-points/internal/infra/metrics"
	red "github.com/Kamigear/teens-points/internal/infra/redis"
	"github.com/Kamigear/teens-points/internal/infra/sched"
	"github.com/Kamigear/teens-points/internal/infra/web"
	"github.com/Kamigear/teens-points/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	memberRepo := pg.NewMemberRepo(pool)
	tokenRepo := pg.NewTokenRepo(pool)
	codeRepo := pg.NewEventCodeRepo(pool)
	ledgerRepo := pg.NewLedgerRepo(pool)
	weeklyRepo := pg.NewWeeklyClaimRepo(pool)
	settingsRepo := red.NewSettingsCacheDecorator(pg.NewSettingsRepo(pool), redisClient, cfg.Redis.TTL)
	txm := pg.NewTxManager(pool)

	// ---- Use cases ----
	claimUC := usecase.NewClaimUseCase(tokenRepo, codeRepo, weeklyRepo, ledgerRepo, memberRepo, settingsRepo, txm, logger)
	memberUC := usecase.NewMemberUseCase(memberRepo, logger)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, memberRepo, txm, logger)
	codeUC := usecase.NewCodeUseCase(codeRepo, logger)
	tokenUC := usecase.NewTokenUseCase(tokenRepo, settingsRepo, logger)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, logger)

	// ---- Token minter (started on demand from the admin API) ----
	minter := sched.NewTokenMinter(tokenUC, logger)
	defer minter.Stop()

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret)
	srv := web.NewServer(claimUC, memberUC, ledgerUC, codeUC, tokenUC, settingsUC, minter, pool, auth, cfg.Auth.AdminAPIKey, ctx, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
