// Command facilitator runs the x402 payment facilitator HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/CedrosPay/x402-facilitator/internal/accountcache"
	"github.com/CedrosPay/x402-facilitator/internal/circuitbreaker"
	"github.com/CedrosPay/x402-facilitator/internal/config"
	"github.com/CedrosPay/x402-facilitator/internal/dedup"
	"github.com/CedrosPay/x402-facilitator/internal/httpserver"
	"github.com/CedrosPay/x402-facilitator/internal/logger"
	"github.com/CedrosPay/x402-facilitator/internal/metrics"
	"github.com/CedrosPay/x402-facilitator/internal/ratelimit"
	"github.com/CedrosPay/x402-facilitator/internal/settlement"
	"github.com/CedrosPay/x402-facilitator/internal/solanachain"
	"github.com/CedrosPay/x402-facilitator/internal/verification"
	"github.com/CedrosPay/x402-facilitator/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("facilitator.config_load_failed")
	}

	appLogger := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "x402-facilitator",
		Version: "dev",
	})

	feePayer, err := solanachain.ParsePrivateKey(cfg.Chain.FeePayerKey)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("facilitator.fee_payer_key_invalid")
	}

	metricsCollector := metrics.New(prometheus.DefaultRegisterer)

	rpcClient := rpc.New(cfg.Chain.RPCURL)

	breaker := circuitbreaker.NewManager(
		circuitbreaker.WithEnabled(cfg.Breaker.Enabled),
		func(service circuitbreaker.ServiceType, state string) {
			metricsCollector.ObserveBreakerStateChange(string(service), state)
		},
	)

	accounts := accountcache.New(rpcClient, cfg.Cache.Size, cfg.Cache.TTL.Duration)
	dedupStore := dedup.New(cfg.Dedup.MaxEntries, cfg.Dedup.Window.Duration)

	verifyPipeline := verification.New(accounts, cfg.Payment.ExpirySeconds)

	submitter := settlement.NewChainSubmitter(rpcClient)
	// /settle marks its own store so that a /verify of the same payload
	// does not make the following /settle a duplicate.
	settleDedup := dedup.New(cfg.Dedup.MaxEntries, cfg.Dedup.Window.Duration)
	settlePipeline := settlement.New(verifyPipeline, settleDedup, submitter, feePayer, breaker)

	webhookDispatcher := webhook.New(webhook.Config{
		URL:           cfg.Webhook.URL,
		Secret:        cfg.Webhook.Secret,
		Timeout:       cfg.Webhook.Timeout.Duration,
		RetryAttempts: cfg.Webhook.RetryAttempts,
	}, metricsCollector, appLogger, breaker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webhookDispatcher.Start(ctx)

	server := httpserver.New(httpserver.Deps{
		Verifier:   verifyPipeline,
		Settler:    settlePipeline,
		DedupStore: dedupStore,
		Webhooks:   webhookDispatcher,
		Breaker:    breaker,
		Metrics:    metricsCollector,
		Logger:             appLogger,
		Port:               cfg.Server.Port,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimit: ratelimit.Config{
			Enabled:   cfg.RateLimit.Enabled,
			PerSecond: cfg.RateLimit.PerSecond,
			BurstSize: cfg.RateLimit.BurstSize,
			Metrics:   metricsCollector,
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Int("port", cfg.Server.Port).Str("network", cfg.Chain.Network).Msg("facilitator.listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case <-ctx.Done():
		appLogger.Info().Msg("facilitator.shutting_down")
	case err := <-serverErr:
		if err != nil {
			appLogger.Error().Err(err).Msg("facilitator.server_error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("facilitator.shutdown_error")
	}
}
