package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/sitecrew/sitecrew/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit carries audit writes so a backlog never starves other work.
	QueueAudit = "audit"
	// TaskAuditWrite persists one audit record.
	TaskAuditWrite = "audit:write"
)

// AuditWritePayload is the queued form of an audit record.
type AuditWritePayload struct {
	Log shared.AuditLog `json:"log"`
}

// NewAuditWriteTask constructs an Asynq task.
func NewAuditWriteTask(log shared.AuditLog) (*asynq.Task, error) {
	data, err := json.Marshal(AuditWritePayload{Log: log})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditWrite, data), nil
}
