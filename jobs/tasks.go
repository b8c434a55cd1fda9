package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMaintenanceWindows applies due maintenance window starts/ends to
	// the rule store. Scheduled every minute; each run is idempotent.
	TaskMaintenanceWindows = "maintenance:windows"
)

// MaintenanceWindowsPayload carries scheduling metadata.
type MaintenanceWindowsPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewMaintenanceWindowsTask constructs the Asynq task.
func NewMaintenanceWindowsTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(MaintenanceWindowsPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMaintenanceWindows, body, asynq.Queue(QueueDefault)), nil
}
