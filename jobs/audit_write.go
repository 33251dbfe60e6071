package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sitecrew/sitecrew/internal/jobs"
	"github.com/sitecrew/sitecrew/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AuditRecorder persists audit records. shared.AuditLogger satisfies it.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// AuditWriteJob drains queued audit records into storage.
type AuditWriteJob struct {
	Recorder AuditRecorder
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewAuditWriteJob wires dependencies for the audit handler.
func NewAuditWriteJob(recorder AuditRecorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditWriteJob {
	return &AuditWriteJob{Recorder: recorder, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAuditWrite tasks.
func (j *AuditWriteJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Recorder == nil {
		return errors.New("audit write: handler not configured")
	}
	var payload AuditWritePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("audit write: decode: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskAuditWrite)
	logger := j.logger().With(
		slog.String("action", payload.Log.Action),
		slog.String("resource_type", payload.Log.ResourceType))

	err := j.Recorder.Record(ctx, payload.Log)
	if errors.Is(err, shared.ErrAuditInvalid) {
		logger.Warn("discard invalid audit record", slog.Any("error", err))
		return tracker.End(fmt.Errorf("audit write: %v: %w", err, asynq.SkipRetry))
	}
	if err != nil {
		logger.Error("persist audit record", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Debug("audit record persisted", slog.String("resource_id", payload.Log.ResourceID))
	return tracker.End(nil)
}

func (j *AuditWriteJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditWrite))
	}
	return slog.Default().With(slog.String("job", TaskAuditWrite))
}

func (j *AuditWriteJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
