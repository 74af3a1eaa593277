package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockyard-erp/stockyard/internal/jobs"
	"github.com/stockyard-erp/stockyard/internal/reports"
)

// DailyReportJob builds the previous day's activity report and
// delivers it.
type DailyReportJob struct {
	Reports   *reports.Service
	Mailer    Mailer
	Recipient string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// Handle builds and delivers the report.
func (j *DailyReportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("daily report: handler not configured")
	}
	var payload DailyReportPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	day := j.now().AddDate(0, 0, -1)
	if payload.Day != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.Day, time.Local)
		if err != nil {
			return asynq.SkipRetry
		}
		day = parsed
	}

	tracker := j.Metrics.Track(TaskDailyReport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("day", day.Format("2006-01-02")))
	report, err := j.Reports.DailyReport(ctx, day)
	if err != nil {
		resultErr = err
		logger.Error("build report", slog.Any("error", err))
		return resultErr
	}

	logger.Info("daily report completed",
		slog.Int("sales", report.SalesCount),
		slog.Float64("revenue", report.Revenue),
		slog.Int("stock_in", report.StockIn),
		slog.Int("stock_out", report.StockOut),
		slog.Int("alerts", report.AlertCount),
	)

	if j.Mailer == nil || j.Recipient == "" {
		return nil
	}
	resultErr = j.Mailer.Send(ctx, j.Recipient, reports.EmailSubject(report.Day), reports.EmailBody(report))
	if resultErr != nil {
		logger.Error("deliver report email", slog.Any("error", resultErr))
	}
	return resultErr
}

func (j *DailyReportJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}

func (j *DailyReportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDailyReport))
	}
	return slog.Default().With(slog.String("job", TaskDailyReport))
}
