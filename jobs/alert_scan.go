package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockyard-erp/stockyard/internal/alerting"
	jobmetrics "github.com/stockyard-erp/stockyard/internal/jobs"
)

// AlertScanJob runs the daily low-stock scan and delivers the result.
type AlertScanJob struct {
	Alerts    *alerting.Service
	Mailer    Mailer
	Recipient string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle executes the scan. No alerts means no email.
func (j *AlertScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Alerts == nil {
		return errors.New("alert scan: handler not configured")
	}

	tracker := j.Metrics.Track(TaskAlertScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	alerts, err := j.Alerts.ComputeAlerts(ctx)
	if err != nil {
		resultErr = err
		logger.Error("compute alerts", slog.Any("error", err))
		return resultErr
	}

	logger.Info("alert scan completed", slog.Int("alerts", len(alerts)))
	j.Metrics.AddLowStockAlerts(len(alerts))
	if len(alerts) == 0 {
		return nil
	}

	for _, a := range alerts {
		logger.Warn("product below threshold",
			slog.String("code", a.ProductCode),
			slog.String("name", a.ProductName),
			slog.Int("stock", a.CurrentStock),
			slog.Int("threshold", a.Threshold),
			slog.String("supplier", a.SupplierName),
		)
	}

	if j.Mailer == nil || j.Recipient == "" {
		return nil
	}
	resultErr = j.Mailer.Send(ctx, j.Recipient, alerting.EmailSubject(len(alerts)), alerting.EmailBody(alerts))
	if resultErr != nil {
		logger.Error("deliver alert email", slog.Any("error", resultErr))
	}
	return resultErr
}

func (j *AlertScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAlertScan))
	}
	return slog.Default().With(slog.String("job", TaskAlertScan))
}
