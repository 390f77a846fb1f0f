package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendSMS is the task type for outbound customer texts.
	TaskTypeSendSMS = "sms:send"
	// TaskTypeReportsWarmup is the task type for precomputing dashboard figures.
	TaskTypeReportsWarmup = "reports:warmup"
)

// SendSMSPayload describes the information required to send a text.
type SendSMSPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// NewSendSMSTask constructs an Asynq task.
func NewSendSMSTask(payload SendSMSPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendSMS, data), nil
}

// SMSJob delivers queued texts through the configured gateway.
type SMSJob struct {
	sender notify.Sender
	logger *slog.Logger
}

// NewSMSJob constructs an SMSJob.
func NewSMSJob(sender notify.Sender, logger *slog.Logger) *SMSJob {
	return &SMSJob{sender: sender, logger: logger}
}

// Handle processes TaskTypeSendSMS tasks.
func (j *SMSJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendSMSPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		j.logger.Warn("sms task without recipient, dropping")
		return asynq.SkipRetry
	}
	return j.sender.Send(ctx, notify.SMS{To: payload.To, From: payload.From, Body: payload.Body})
}

// NewReportsWarmupTask constructs the dashboard warmup task.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReportsWarmup, nil)
}

// DashboardWarmer recomputes and caches the dashboard figures.
type DashboardWarmer interface {
	WarmDashboard(ctx context.Context) error
}

// ReportsWarmupJob refreshes the cached dashboard off-peak so the first
// morning request does not pay the aggregation cost.
type ReportsWarmupJob struct {
	warmer DashboardWarmer
	logger *slog.Logger
}

// NewReportsWarmupJob constructs a ReportsWarmupJob.
func NewReportsWarmupJob(warmer DashboardWarmer, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{warmer: warmer, logger: logger}
}

// Handle processes TaskTypeReportsWarmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if err := j.warmer.WarmDashboard(ctx); err != nil {
		j.logger.Error("reports warmup", slog.Any("error", err))
		return err
	}
	j.logger.Info("reports warmup complete")
	return nil
}
