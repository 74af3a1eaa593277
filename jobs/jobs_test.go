package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/alerting"
	"github.com/stockyard-erp/stockyard/internal/reports"
	_ "github.com/stockyard-erp/stockyard/testing"
)

type recordingMailer struct {
	to      []string
	subject []string
	body    []string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

type alertRepoStub struct {
	alerts []alerting.Alert
}

func (s *alertRepoStub) BelowThreshold(context.Context) ([]alerting.Alert, error) {
	return s.alerts, nil
}

func TestAlertScanSendsEmailWhenBelowThreshold(t *testing.T) {
	mailer := &recordingMailer{}
	job := &AlertScanJob{
		Alerts: alerting.NewService(&alertRepoStub{alerts: []alerting.Alert{
			{ProductCode: "VIS-001", ProductName: "Vis 4x40", CurrentStock: 2, Threshold: 10},
		}}),
		Mailer:    mailer,
		Recipient: "admin@stockyard.local",
	}

	require.NoError(t, job.Handle(context.Background(), NewAlertScanTask()))
	require.Len(t, mailer.to, 1)
	require.Equal(t, "admin@stockyard.local", mailer.to[0])
	require.Contains(t, mailer.subject[0], "1 produit(s)")
	require.Contains(t, mailer.body[0], "Vis 4x40")
	require.Contains(t, mailer.body[0], alerting.NoSupplier)
}

func TestAlertScanSkipsEmailWhenNoAlert(t *testing.T) {
	mailer := &recordingMailer{}
	job := &AlertScanJob{
		Alerts:    alerting.NewService(&alertRepoStub{}),
		Mailer:    mailer,
		Recipient: "admin@stockyard.local",
	}

	require.NoError(t, job.Handle(context.Background(), NewAlertScanTask()))
	require.Empty(t, mailer.to)
}

type reportRepoStub struct {
	from time.Time
}

func (s *reportRepoStub) MovementStats(_ context.Context, from, _ time.Time) (reports.MovementStats, error) {
	s.from = from
	return reports.MovementStats{In: 1, Out: 2, Revenue: 50, SalesCount: 2}, nil
}

func (s *reportRepoStub) SaleStats(context.Context, time.Time, time.Time) (reports.SaleStats, error) {
	return reports.SaleStats{CompletedCount: 2, CompletedRevenue: 48, Discounts: 2}, nil
}

func (s *reportRepoStub) TopProducts(context.Context, time.Time, time.Time, int) ([]reports.TopProduct, error) {
	return nil, nil
}

func (s *reportRepoStub) AlertCount(context.Context) (int, error) {
	return 0, nil
}

func TestDailyReportDefaultsToYesterday(t *testing.T) {
	mailer := &recordingMailer{}
	repo := &reportRepoStub{}
	job := &DailyReportJob{
		Reports:   reports.NewService(repo),
		Mailer:    mailer,
		Recipient: "admin@stockyard.local",
		clock: func() time.Time {
			return time.Date(2024, 6, 2, 6, 30, 0, 0, time.UTC)
		},
	}

	task, err := NewDailyReportTask(DailyReportPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), repo.from)
	require.Len(t, mailer.to, 1)
	require.Contains(t, mailer.subject[0], "01/06/2024")
	require.Contains(t, mailer.body[0], "Ventes finalisées : 2")
}

func TestDailyReportRejectsBadPayload(t *testing.T) {
	job := &DailyReportJob{Reports: reports.NewService(&reportRepoStub{})}
	err := job.Handle(context.Background(), asynq.NewTask(TaskDailyReport, []byte("{bad")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailJobValidatesPayload(t *testing.T) {
	mailer := &recordingMailer{}
	job := &SendEmailJob{Mailer: mailer}

	task, err := NewSendEmailTask(SendEmailPayload{To: "admin@stockyard.local", Subject: "s", Body: "b"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.to, 1)

	missingTo, err := NewSendEmailTask(SendEmailPayload{Subject: "s"})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), missingTo), asynq.SkipRetry)
}
