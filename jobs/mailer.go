package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockyard-erp/stockyard/internal/jobs"
)

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr string
	From string
}

// Send delivers the message. Errors bubble up so the task is retried.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	if m == nil || m.Addr == "" || m.From == "" {
		return errors.New("mailer: smtp not configured")
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg.String()))
}

// LogMailer logs the message instead of sending it. Used outside
// production so developers see alert and report emails in the worker
// output.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger := slog.Default()
	if m != nil && m.Logger != nil {
		logger = m.Logger
	}
	logger.Info("mail (not sent)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

// SendEmailJob processes mail:send tasks.
type SendEmailJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle delivers the email described by the task payload.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("send email: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskSendEmail)
	err := j.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	if err != nil {
		j.logger().Error("send email", slog.Any("error", err), slog.String("to", payload.To))
	}
	return tracker.End(err)
}

func (j *SendEmailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskSendEmail))
}
