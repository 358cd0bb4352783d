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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roi-widget/config"
	"roi-widget/crm"
	"roi-widget/domain"
	httpLayer "roi-widget/http"
	"roi-widget/logging"
	"roi-widget/metrics"
	"roi-widget/repository"
	"roi-widget/service"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	listenAddr string
	verbose    bool
	devLogs    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "roi-widget",
	Short: "ROI calculator and lead capture service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose, devLogs)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calculator and lead endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "human-readable console logs")
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCache(ctx context.Context, cfg config.Config) (repository.CacheRepository, func()) {
	if cfg.Cache.RedisAddr == "" {
		return repository.NewMemoryCache(), func() {}
	}
	cache := repository.NewRedisCache(cfg.Cache.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, estimates will not be cached across instances", zap.Error(err))
	}
	return cache, func() { _ = cache.Close() }
}

func newDelivery(cfg config.Config) service.LeadDelivery {
	if !cfg.CRMConfigured() {
		logger.Info("crm form not configured, leads go to mail drafts", zap.String("to", cfg.FallbackEmail))
		return service.NewMailDraft(cfg.FallbackEmail)
	}
	return crm.NewClient(cfg.CRM.PortalID, cfg.CRM.FormID, crm.WithBaseURL(cfg.CRM.BaseURL))
}

func serve(ctx context.Context, cfg config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	cache, closeCache := newCache(ctx, cfg)
	defer closeCache()

	schema, err := service.NewFieldSchema(cfg.FieldMap, cfg.StrictValidation)
	if err != nil {
		return err
	}

	roiService := service.NewRoiService(cache, cfg.Cache.TTL, logger, rec)
	roiHandler := httpLayer.NewRoiHandler(roiService, logger)

	controllerCfg := service.LeadControllerConfig{
		Schema:        schema,
		Delivery:      newDelivery(cfg),
		Timeout:       cfg.SubmitTimeout,
		FallbackEmail: cfg.FallbackEmail,
		Page:          domain.PageContext{PageURI: cfg.Page.URI, PageName: cfg.Page.Name},
		Logger:        logger,
		Metrics:       rec,
	}
	registry := httpLayer.NewControllerRegistry(func(formID string) *service.LeadController {
		return service.NewLeadController(formID, controllerCfg)
	})
	defer registry.Stop()
	leadHandler := httpLayer.NewLeadHandler(registry, logger)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: httpLayer.NewRouter(httpLayer.RouterDeps{
			Roi:      roiHandler,
			Leads:    leadHandler,
			Limiter:  rateLimiter,
			Metrics:  rec,
			Gatherer: reg,
			Logger:   logger,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SubmitTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
