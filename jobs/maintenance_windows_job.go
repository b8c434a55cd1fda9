package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campuscanteen/canteen-api/internal/maintenance"
)

// MaintenanceWindowsJob flips the rule on and off as scheduled windows
// start and end.
type MaintenanceWindowsJob struct {
	service *maintenance.Service
	logger  *slog.Logger
	now     func() time.Time
}

// NewMaintenanceWindowsJob constructs the job. A nil clock uses time.Now.
func NewMaintenanceWindowsJob(service *maintenance.Service, logger *slog.Logger, now func() time.Time) *MaintenanceWindowsJob {
	if now == nil {
		now = time.Now
	}
	return &MaintenanceWindowsJob{service: service, logger: logger, now: now}
}

// Handle processes TaskMaintenanceWindows tasks.
func (j *MaintenanceWindowsJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload MaintenanceWindowsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.service.ApplyDueWindows(ctx, j.now().UTC()); err != nil {
		if j.logger != nil {
			j.logger.Error("apply maintenance windows", slog.Any("error", err))
		}
		return err
	}
	return nil
}
