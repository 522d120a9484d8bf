package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/config"
	"Mansoor88-6/schedule-tracker/internal/database"
	"Mansoor88-6/schedule-tracker/internal/handler"
	"Mansoor88-6/schedule-tracker/internal/logger"
	"Mansoor88-6/schedule-tracker/internal/middleware"
	"Mansoor88-6/schedule-tracker/internal/repository"
	"Mansoor88-6/schedule-tracker/internal/router"
	"Mansoor88-6/schedule-tracker/internal/service"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	issueToken := flag.String("issue-token", "", "Print a bearer token for the given user id and exit")
	repairDates := flag.Bool("repair-dates", false, "Recompute log dates from started_at and exit (dry run unless -apply)")
	apply := flag.Bool("apply", false, "Write changes made by -repair-dates")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve timezone: %v\n", err)
		os.Exit(1)
	}
	clk := clock.NewReal()
	tokens := middleware.NewTokens(cfg.Secret(), cfg.Auth.Issuer, cfg.Auth.TokenTTL, clk.Now)

	if *issueToken != "" {
		tok, err := tokens.Generate(*issueToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	activityRepo := repository.NewActivityRepository(db.DB)
	segmentRepo := repository.NewSegmentRepository(db.DB)
	logRepo := repository.NewTimeLogRepository(db.DB)

	if *repairDates {
		if err := runRepair(log.Logger, service.NewMaintenanceService(logRepo, loc, cfg.Maintenance.BatchSize, log.Logger), *apply); err != nil {
			log.Error("Log date repair failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	log.Info("Starting schedule tracker",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
		zap.String("timezone", loc.String()),
	)

	activities := service.NewActivityService(activityRepo, clk)
	segments := service.NewSegmentService(segmentRepo, activityRepo, clk, loc)
	logs := service.NewTimeLogService(logRepo, activityRepo, segmentRepo, clk, loc)
	dashboard := service.NewDashboardService(activityRepo, segmentRepo, logRepo, clk, loc)
	usage := service.NewUsageService(segmentRepo, logRepo, clk, loc)

	var limiter *middleware.LimiterStore
	if !cfg.RateLimit.Disabled {
		limiter = middleware.NewLimiterStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL, log.Logger)
		defer limiter.Stop()
	} else {
		log.Info("Rate limiting disabled in configuration")
	}

	h := router.New(router.Handlers{
		Activities: handler.NewActivityHandler(activities, log.Logger),
		Segments:   handler.NewSegmentHandler(segments, clk, loc, log.Logger),
		Logs:       handler.NewTimeLogHandler(logs, loc, log.Logger),
		Reports:    handler.NewReportHandler(dashboard, usage, loc, log.Logger),
		System:     handler.NewSystemHandler(db, clk, loc, log.Logger),
	}, router.Options{
		Tokens:         tokens,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         log.Logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("Schedule tracker stopped")
}

// runRepair prints the summary as JSON on stdout so it can be piped.
func runRepair(log *zap.Logger, maintenance *service.MaintenanceService, apply bool) error {
	if !apply {
		log.Info("Dry run, pass -apply to write changes")
	}
	sum, err := maintenance.RepairDates(context.Background(), apply)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
