package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/alerting"
	"github.com/stockyard-erp/stockyard/internal/app"
	jobmetrics "github.com/stockyard-erp/stockyard/internal/jobs"
	"github.com/stockyard-erp/stockyard/internal/reports"
	"github.com/stockyard-erp/stockyard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	alertingService := alerting.NewService(alerting.NewRepository(pool))
	reportsService := reports.NewService(reports.NewRepository(pool))
	metrics := jobmetrics.NewMetrics(nil)

	var mailer jobs.Mailer
	if cfg.IsProduction() {
		mailer = &jobs.SMTPMailer{
			Addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
			From: cfg.SMTPFrom,
		}
	} else {
		mailer = &jobs.LogMailer{Logger: logger}
	}

	alertJob := &jobs.AlertScanJob{
		Alerts:    alertingService,
		Mailer:    mailer,
		Recipient: cfg.AlertRecipient,
		Logger:    logger,
		Metrics:   metrics,
	}
	reportJob := &jobs.DailyReportJob{
		Reports:   reportsService,
		Mailer:    mailer,
		Recipient: cfg.AlertRecipient,
		Logger:    logger,
		Metrics:   metrics,
	}
	mailJob := &jobs.SendEmailJob{
		Mailer:  mailer,
		Logger:  logger,
		Metrics: metrics,
	}

	reportTask, err := jobs.NewDailyReportTask(jobs.DailyReportPayload{})
	if err != nil {
		logger.Error("build report task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAlertScan, Handler: alertJob.Handle},
			{Type: jobs.TaskDailyReport, Handler: reportJob.Handle},
			{Type: jobs.TaskSendEmail, Handler: mailJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 6 * * *", Task: reportTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 7 * * *", Task: jobs.NewAlertScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
