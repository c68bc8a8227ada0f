package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mstgnz/stripeconn/handler"
	"github.com/mstgnz/stripeconn/infra/config"
	"github.com/mstgnz/stripeconn/infra/logger"
	"github.com/mstgnz/stripeconn/infra/opensearch"
	"github.com/mstgnz/stripeconn/infra/storage"
	"github.com/mstgnz/stripeconn/provider"
	"github.com/mstgnz/stripeconn/provider/stripe"
	"github.com/mstgnz/stripeconn/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Initialize OpenSearch client and logger
	var osLogger *opensearch.Logger
	if cfg.OpenSearch.Enabled {
		osClient, err := opensearch.NewClient(cfg.OpenSearch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opensearch: %v, continuing without it\n", err)
		} else {
			osLogger = opensearch.NewLogger(osClient)
		}
	}

	logOpts := logger.Options{
		Environment: cfg.Environment,
		Level:       cfg.LoggingLevel,
	}
	if osLogger != nil {
		logOpts.Sink = osLogger
	}
	logger.InitGlobalLogger(logOpts)

	var (
		serviceOpts []provider.ServiceOption
		recorders   []string
		exchanges   handler.ExchangeReader
		stats       handler.StatsProvider
	)

	if cfg.ExchangeDBPath != "" {
		store, err := storage.NewSQLiteExchangeStore(cfg.ExchangeDBPath)
		if err != nil {
			logger.Fatal("failed to open exchange store", err)
		}
		defer store.Close()

		serviceOpts = append(serviceOpts, provider.WithRecorder(store))
		recorders = append(recorders, "sqlite")
		exchanges = store
		stats = store
	}

	if osLogger != nil {
		serviceOpts = append(serviceOpts, provider.WithRecorder(osLogger))
		recorders = append(recorders, "opensearch")
		if exchanges == nil {
			exchanges = osLogger
		}
	}

	paymentService, err := provider.NewPaymentServiceFromRegistry(
		cfg.Processor,
		stripe.Settings(cfg.Stripe),
		stripe.Credentials(cfg.Stripe),
		serviceOpts...,
	)
	if err != nil {
		logger.Fatal("failed to create payment service", err)
	}

	health := handler.NewHealthHandler(version, cfg.Environment, cfg.Processor, recorders...)
	if stats != nil {
		health.WithStorageStats(stats)
	}

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: router.New(ctx, router.Dependencies{
			PaymentService: paymentService,
			Exchanges:      exchanges,
			Health:         health,
			API:            cfg.API,
		}),
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server stopped", err)
		}
	}()

	logger.WithProvider(cfg.Processor).
		AddField("port", cfg.Port).
		AddField("recorders", recorders).
		Info("API is running")

	// Block until a signal is received
	<-ctx.Done()

	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}
