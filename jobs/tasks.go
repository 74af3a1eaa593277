package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskAlertScan runs the daily low-stock scan.
	TaskAlertScan = "alerts:scan"
	// TaskDailyReport builds and delivers yesterday's activity report.
	TaskDailyReport = "reports:daily"
	// TaskSendEmail delivers one transactional email.
	TaskSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs a mail delivery task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, data), nil
}

// NewAlertScanTask constructs an alert scan task. The payload is empty,
// the scan always covers the full catalog.
func NewAlertScanTask() *asynq.Task {
	return asynq.NewTask(TaskAlertScan, nil)
}

// DailyReportPayload optionally pins the report to a specific day
// (format 2006-01-02). Empty means yesterday.
type DailyReportPayload struct {
	Day string `json:"day,omitempty"`
}

// NewDailyReportTask constructs a daily report task.
func NewDailyReportTask(payload DailyReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyReport, data), nil
}
