package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/salonloop/notifier/internal/alert"
	"github.com/salonloop/notifier/internal/config"
	"github.com/salonloop/notifier/internal/dispatch"
	"github.com/salonloop/notifier/internal/email"
	"github.com/salonloop/notifier/internal/mirror"
	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository/postgres"
	"github.com/salonloop/notifier/internal/source"
	"github.com/salonloop/notifier/pkg/logger"
	"github.com/salonloop/notifier/pkg/metrics"
)

// One-shot entry point: runs a single trigger and exits. The reference
// time is always passed in explicitly so deployments driven by external
// cron stay reproducible and testable.
func main() {
	var (
		triggerFlag = flag.String("trigger", "", "trigger type to run: same_day or follow_up")
		asOfFlag    = flag.String("as-of", "", "run reference time, RFC3339 or YYYY-MM-DD (default: now)")
		configPath  = flag.String("config", "", "directory containing config.yaml")
	)
	flag.Parse()

	log := logger.NewLogger(&logger.Config{
		Level:      zerolog.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	trigger := model.TriggerType(*triggerFlag)
	if !trigger.Valid() {
		log.Fatal(fmt.Errorf("invalid -trigger %q", *triggerFlag), "usage: notifier -trigger same_day|follow_up [-as-of TIME]")
	}

	asOf, err := parseAsOf(*asOfFlag)
	if err != nil {
		log.Fatal(err, "invalid -as-of value")
	}

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

	ctx := context.Background()
	if err := postgres.InitSchema(ctx, db); err != nil {
		log.Fatal(err, "failed to initialize schema")
	}

	engine := buildEngine(cfg, db, log)

	summary, err := engine.RunTrigger(ctx, trigger, asOf)
	if err != nil {
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(2)
	}
}

func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as RFC3339 or YYYY-MM-DD", value)
}

func buildEngine(cfg *config.Config, db *sqlx.DB, log *logger.Logger) *dispatch.Engine {
	base := postgres.NewBaseRepository(db)
	customerRepo := postgres.NewCustomerRepository(base)
	eventRepo := postgres.NewEventRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	runRepo := postgres.NewRunLogRepository(base)
	attemptRepo := postgres.NewAttemptLogRepository(base)

	m := metrics.New("notifier")

	sourceClient := source.NewHTTPClient(cfg.Source, cfg.Secrets.SourceAPIKey, log)
	mirrorSvc := mirror.NewService(sourceClient, customerRepo, eventRepo, log, m)

	deliverer := email.NewSMTPSender(cfg.SMTP, cfg.Secrets.SMTPPassword, cfg.Business.Name, log)
	alerts := alert.NewEmailNotifier(cfg.Alert, deliverer, log)

	return dispatch.NewEngine(
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
}
