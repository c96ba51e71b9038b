package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/shauryapay/fastag-hub/internal/api/http"
	appAgent "github.com/shauryapay/fastag-hub/internal/application/agent"
	appFlow "github.com/shauryapay/fastag-hub/internal/application/flow"
	"github.com/shauryapay/fastag-hub/internal/config"
	"github.com/shauryapay/fastag-hub/internal/domain/plan"
	"github.com/shauryapay/fastag-hub/internal/domain/session"
	"github.com/shauryapay/fastag-hub/internal/infrastructure/bhashsms"
	"github.com/shauryapay/fastag-hub/internal/infrastructure/postgres"
	"github.com/shauryapay/fastag-hub/internal/infrastructure/shauryapay"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	sessionRepo := postgres.NewSessionRepository(pool)
	agentRepo := postgres.NewAgentRepository(pool)
	fastagRepo := postgres.NewFastagRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)

	// infrastructure
	providerClient := shauryapay.NewClient(shauryapay.Config{
		BaseURL:         cfg.ProviderBaseURL,
		SubscriptionKey: cfg.ProviderSubscriptionKey,
		AggrChannel:     cfg.ProviderAggrChannel,
		Timeout:         cfg.ProviderTimeout,
	}, logger)
	smsGateway := bhashsms.NewGateway(bhashsms.Config{
		URL:      cfg.SMSURL,
		User:     cfg.SMSUser,
		Password: cfg.SMSPassword,
		Sender:   cfg.SMSSender,
		Priority: cfg.SMSPriority,
		SType:    cfg.SMSSType,
	}, logger)

	// services
	agentSvc := appAgent.NewService(agentRepo, sessionRepo, smsGateway, cfg.SessionTTL, logger)
	flowSvc := appFlow.NewService(
		sessionRepo, agentRepo, fastagRepo, ledgerRepo,
		providerClient, plan.DefaultCatalog(),
		appFlow.Options{
			SessionTTL:           cfg.SessionTTL,
			IssuanceEditState:    session.State(cfg.IssuanceEditState),
			ReplacementEditState: session.State(cfg.ReplacementEditState),
		},
		logger,
	)

	apiServer := httpapi.NewServer(agentSvc, flowSvc)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			_, _ = flowSvc.ExpireIdle(context.Background(), time.Now().UTC())
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
