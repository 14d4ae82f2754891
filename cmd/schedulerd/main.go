package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/salonloop/notifier/internal/alert"
	"github.com/salonloop/notifier/internal/config"
	"github.com/salonloop/notifier/internal/dispatch"
	"github.com/salonloop/notifier/internal/email"
	"github.com/salonloop/notifier/internal/handler"
	"github.com/salonloop/notifier/internal/middleware"
	"github.com/salonloop/notifier/internal/mirror"
	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
	"github.com/salonloop/notifier/internal/repository/postgres"
	"github.com/salonloop/notifier/internal/source"
	"github.com/salonloop/notifier/internal/worker"
	"github.com/salonloop/notifier/pkg/circuitbreaker"
	"github.com/salonloop/notifier/pkg/logger"
	"github.com/salonloop/notifier/pkg/metrics"
)

const (
	auditRetention     = 90 * 24 * time.Hour
	auditPruneInterval = 24 * time.Hour
)

// Long-running entry point: fires triggers on cron schedules and serves
// the operational HTTP surface. Each firing injects the wall clock as
// the run's reference time.
func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	log := logger.NewLogger(&logger.Config{
		Level:      zerolog.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	var paths []string
	if *configPath != "" {
		paths = []string{*configPath}
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.InitSchema(ctx, db); err != nil {
		log.Fatal(err, "failed to initialize schema")
	}

	engine, runRepo, attemptRepo := buildEngine(cfg, db, log)

	scheduler, err := buildScheduler(ctx, cfg.Schedule, engine, log)
	if err != nil {
		log.Fatal(err, "failed to build schedule")
	}
	scheduler.Start()

	go worker.NewRetentionWorker(runRepo, attemptRepo, auditRetention, auditPruneInterval, log).Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLog(log))
	handler.NewStatusHandler(db, runRepo, log).RegisterRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "status server failed")
		}
	}()
	log.Info("scheduler daemon started", "port", cfg.Server.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "status server shutdown failed")
	}
	// Wait for an in-flight run to finish before exiting.
	<-scheduler.Stop().Done()
}

func buildScheduler(ctx context.Context, cfg config.ScheduleConfig, engine *dispatch.Engine, log *logger.Logger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))

	runTrigger := func(trigger model.TriggerType) func() {
		return func() {
			if _, err := engine.RunTrigger(ctx, trigger, time.Now().UTC()); err != nil {
				log.Error(err, "scheduled run aborted", "trigger", string(trigger))
			}
		}
	}

	for _, spec := range cfg.SameDay {
		if _, err := c.AddFunc(spec, runTrigger(model.TriggerSameDay)); err != nil {
			return nil, fmt.Errorf("invalid same_day schedule %q: %w", spec, err)
		}
		log.Info("scheduled same-day run", "cron", spec)
	}
	if _, err := c.AddFunc(cfg.FollowUp, runTrigger(model.TriggerFollowUp)); err != nil {
		return nil, fmt.Errorf("invalid follow_up schedule %q: %w", cfg.FollowUp, err)
	}
	log.Info("scheduled follow-up run", "cron", cfg.FollowUp)

	return c, nil
}

func buildEngine(cfg *config.Config, db *sqlx.DB, log *logger.Logger) (*dispatch.Engine, repository.RunLogRepository, repository.AttemptLogRepository) {
	base := postgres.NewBaseRepository(db)
	customerRepo := postgres.NewCustomerRepository(base)
	eventRepo := postgres.NewEventRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	runRepo := postgres.NewRunLogRepository(base)
	attemptRepo := postgres.NewAttemptLogRepository(base)

	m := metrics.New("notifier")

	// The daemon outlives a platform outage; fail fast between runs
	// instead of timing out against a host known to be down.
	sourceClient := source.NewBreakerClient(
		source.NewHTTPClient(cfg.Source, cfg.Secrets.SourceAPIKey, log),
		circuitbreaker.New(circuitbreaker.Settings{
			Name:             "booking-platform",
			FailureThreshold: 3,
			Cooldown:         5 * time.Minute,
		}),
	)
	mirrorSvc := mirror.NewService(sourceClient, customerRepo, eventRepo, log, m)

	deliverer := email.NewSMTPSender(cfg.SMTP, cfg.Secrets.SMTPPassword, cfg.Business.Name, log)
	alerts := alert.NewEmailNotifier(cfg.Alert, deliverer, log)

	engine := dispatch.NewEngine(
		dispatch.Config{
			MaxAttempts:       cfg.Dispatch.MaxAttempts,
			BatchSize:         cfg.Dispatch.BatchSize,
			InterBatchDelay:   cfg.Dispatch.InterBatchDelay,
			FollowUpDays:      cfg.Dispatch.FollowUpDays,
			StaleSendingAfter: cfg.Dispatch.StaleSendingAfter,
			FeedbackBaseURL:   cfg.Business.FeedbackBaseURL,
		},
		mirrorSvc,
		eventRepo,
		notificationRepo,
		runRepo,
		attemptRepo,
		deliverer,
		alerts,
		log,
		m,
	)
	return engine, runRepo, attemptRepo
}
