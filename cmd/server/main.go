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

	"github.com/pantrylens/backend/config"
	httpDelivery "github.com/pantrylens/backend/internal/delivery/http"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/endpoints"
	"github.com/pantrylens/backend/internal/infrastructure/fallback"
	"github.com/pantrylens/backend/internal/infrastructure/fetch"
	"github.com/pantrylens/backend/internal/infrastructure/openfoodfacts"
	"github.com/pantrylens/backend/internal/infrastructure/ratelimit"
	"github.com/pantrylens/backend/internal/infrastructure/usda"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/pantrylens/backend/internal/metrics"
	"github.com/pantrylens/backend/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.NewLogger(logging.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
	debug := cfg.Server.Environment == "development"

	// Initialize infrastructure dependencies
	recorder := metrics.Recorder{}
	executor := fetch.NewExecutor(logger, recorder)
	selector := endpoints.NewSelector(endpoints.OpenFoodFactsHosts{
		Global: cfg.OpenFoodFacts.GlobalURL,
		US:     cfg.OpenFoodFacts.USURL,
		UK:     cfg.OpenFoodFacts.UKURL,
	}, cfg.USDA.BaseURL)

	offClient := openfoodfacts.NewClient(cfg.OpenFoodFacts.UserAgent, logger)
	offClient.SetDebug(debug)

	usdaClient := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.RequestsPerHour, logger)
	usdaClient.SetDebug(debug)
	if !usdaClient.Configured() {
		logger.WithField("source", domain.SourceUSDA).Info("USDA adapter disabled: no API key configured")
	}

	catalog, err := fallback.Load(cfg.Fallback.CatalogPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load fallback catalog")
	}
	logger.WithFields(logrus.Fields{
		"source":  domain.SourceFallback,
		"entries": catalog.Len(),
		"path":    cfg.Fallback.CatalogPath,
	}).Info("Fallback catalog loaded")

	// Sources in priority order
	sources := []domain.ProductSource{
		openfoodfacts.NewSource(offClient, selector, executor, logger),
		usda.NewSource(usdaClient, selector, executor, logger),
		fallback.NewSource(catalog),
	}

	// Initialize usecase layer
	resolver := usecase.NewResolutionService(
		sources,
		usecase.NewCategoryMapper(logger),
		usecase.ResolutionConfig{
			MaxRetries:     cfg.Resolver.MaxRetries,
			AttemptTimeout: cfg.Resolver.AttemptTimeout,
			Backoff:        cfg.Resolver.Backoff,
		},
		logger,
		recorder,
	)

	limiter := ratelimit.NewStore(cfg.RateLimit.PerIP, 10*time.Minute)
	defer limiter.Stop()
	metrics.RegisterTrackedClients(prometheus.DefaultRegisterer, limiter.Size)

	handler := httpDelivery.NewHandler(resolver, logger)
	router := httpDelivery.SetupRouter(cfg, handler, limiter, logger)

	logging.LogStartup(logger, cfg.Server.Environment, cfg.Server.Port, resolver.SourceNames())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	case <-ctx.Done():
		logger.Warn("Shutdown initiated")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		return
	}
	logger.Info("Shutdown complete")
}
