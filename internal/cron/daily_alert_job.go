package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// DailyAlertJobParams configure the daily weather alert job.
type DailyAlertJobParams struct {
	Logger   *logger.Logger
	Users    alertRecipientRepo
	Composer alertComposer
	Sender   smsSender
	Logs     smsLogRepo
}

type alertRecipientRepo interface {
	ListWithMobile(ctx context.Context) ([]models.User, error)
}

type alertComposer interface {
	Compose(ctx context.Context, location string) string
}

type smsSender interface {
	Send(ctx context.Context, toNumber, message string) error
}

type smsLogRepo interface {
	CreateBatch(ctx context.Context, rows []models.SmsLog) error
}

// NewDailyAlertJob wires the per-farmer weather SMS broadcast.
func NewDailyAlertJob(params DailyAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Composer == nil {
		return nil, fmt.Errorf("alert composer required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("sms sender required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("sms log repository required")
	}
	return &dailyAlertJob{
		logg:     params.Logger,
		users:    params.Users,
		composer: params.Composer,
		sender:   params.Sender,
		logs:     params.Logs,
	}, nil
}

type dailyAlertJob struct {
	logg     *logger.Logger
	users    alertRecipientRepo
	composer alertComposer
	sender   smsSender
	logs     smsLogRepo
}

func (j *dailyAlertJob) Name() string { return "daily-weather-alert" }

// Run broadcasts one SMS per farmer with a mobile number. A failed send is
// recorded in the delivery log and never aborts the rest of the batch; only
// failures to read the recipient list or persist the log fail the job.
func (j *dailyAlertJob) Run(ctx context.Context) error {
	recipients, err := j.users.ListWithMobile(ctx)
	if err != nil {
		return fmt.Errorf("list alert recipients: %w", err)
	}
	if len(recipients) == 0 {
		j.logg.Info(ctx, "no alert recipients with a mobile number")
		return nil
	}

	rows := make([]models.SmsLog, 0, len(recipients))
	var sendErrs error
	sent := 0
	for _, user := range recipients {
		message := j.composer.Compose(ctx, user.Location)
		row := models.SmsLog{
			ToNumber: user.Mobile,
			Message:  message,
			Success:  true,
			Response: "Sent via provider",
		}
		if err := j.sender.Send(ctx, user.Mobile, message); err != nil {
			row.Success = false
			row.Response = fmt.Sprintf("Failed: %v", err)
			sendErrs = multierr.Append(sendErrs, fmt.Errorf("send to %s: %w", user.Username, err))
		} else {
			sent++
		}
		rows = append(rows, row)
	}

	if err := j.logs.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("persist sms log: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"recipients": len(recipients),
		"sent":       sent,
		"failed":     len(recipients) - sent,
	})
	if sendErrs != nil {
		j.logg.Error(logCtx, "some alert sends failed", sendErrs)
	}
	j.logg.Info(logCtx, "daily alert broadcast complete")
	return nil
}
