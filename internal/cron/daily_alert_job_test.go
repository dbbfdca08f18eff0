package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

type fakeRecipientRepo struct {
	users []models.User
	err   error
}

func (f *fakeRecipientRepo) ListWithMobile(context.Context) ([]models.User, error) {
	return f.users, f.err
}

type fakeComposer struct{}

func (fakeComposer) Compose(_ context.Context, location string) string {
	if strings.TrimSpace(location) == "" {
		return "Weather location not set."
	}
	return "Weather in " + location + ": clear sky, 28.0 C."
}

type fakeSender struct {
	failFor map[string]error
	sent    []string
}

func (f *fakeSender) Send(_ context.Context, toNumber, _ string) error {
	if err, ok := f.failFor[toNumber]; ok {
		return err
	}
	f.sent = append(f.sent, toNumber)
	return nil
}

type fakeSmsLogRepo struct {
	rows []models.SmsLog
	err  error
}

func (f *fakeSmsLogRepo) CreateBatch(_ context.Context, rows []models.SmsLog) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func newDailyAlertJob(t *testing.T, users *fakeRecipientRepo, sender *fakeSender, logs *fakeSmsLogRepo) Job {
	t.Helper()
	job, err := NewDailyAlertJob(DailyAlertJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Users:    users,
		Composer: fakeComposer{},
		Sender:   sender,
		Logs:     logs,
	})
	if err != nil {
		t.Fatalf("NewDailyAlertJob: %v", err)
	}
	return job
}

func TestDailyAlertJobLogsOneRowPerRecipient(t *testing.T) {
	users := &fakeRecipientRepo{users: []models.User{
		{Username: "ravi", Location: "Pune", Mobile: "9000000001"},
		{Username: "maya", Location: "", Mobile: "9000000002"},
		{Username: "arun", Location: "Delhi", Mobile: "9000000003"},
	}}
	sender := &fakeSender{failFor: map[string]error{"9000000003": errors.New("provider down")}}
	logs := &fakeSmsLogRepo{}
	job := newDailyAlertJob(t, users, sender, logs)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("send failures must not fail the job: %v", err)
	}

	if len(logs.rows) != len(users.users) {
		t.Fatalf("expected %d log rows, got %d", len(users.users), len(logs.rows))
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 successful sends, got %d", len(sender.sent))
	}

	byNumber := map[string]models.SmsLog{}
	for _, row := range logs.rows {
		byNumber[row.ToNumber] = row
	}
	if !byNumber["9000000001"].Success {
		t.Fatal("expected successful delivery for 9000000001")
	}
	if byNumber["9000000001"].Response != "Sent via provider" {
		t.Fatalf("unexpected delivery response %q", byNumber["9000000001"].Response)
	}
	if byNumber["9000000003"].Success {
		t.Fatal("failed send must be logged as unsuccessful")
	}
	if !strings.Contains(byNumber["9000000003"].Response, "provider down") {
		t.Fatalf("failure response must carry the provider error, got %q", byNumber["9000000003"].Response)
	}
	if !strings.Contains(byNumber["9000000002"].Message, "location not set") {
		t.Fatalf("blank location must get the fallback message, got %q", byNumber["9000000002"].Message)
	}
}

func TestDailyAlertJobFailsWhenRecipientsUnavailable(t *testing.T) {
	users := &fakeRecipientRepo{err: errors.New("db down")}
	job := newDailyAlertJob(t, users, &fakeSender{}, &fakeSmsLogRepo{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when the recipient list cannot be read")
	}
}

func TestDailyAlertJobFailsWhenLogPersistFails(t *testing.T) {
	users := &fakeRecipientRepo{users: []models.User{
		{Username: "ravi", Location: "Pune", Mobile: "9000000001"},
	}}
	logs := &fakeSmsLogRepo{err: errors.New("insert failed")}
	job := newDailyAlertJob(t, users, &fakeSender{}, logs)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when the delivery log cannot be persisted")
	}
}

func TestDailyAlertJobSkipsEmptyRecipientList(t *testing.T) {
	logs := &fakeSmsLogRepo{}
	sender := &fakeSender{}
	job := newDailyAlertJob(t, &fakeRecipientRepo{}, sender, logs)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.sent) != 0 || len(logs.rows) != 0 {
		t.Fatal("nothing should be sent or logged without recipients")
	}
}
