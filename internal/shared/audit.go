package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// AuditLog represents a record stored in audit_logs. Column names follow the
// JSON keys, as for every other table.
type AuditLog struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	OldValues    map[string]any `json:"oldValues,omitempty"`
	NewValues    map[string]any `json:"newValues,omitempty"`
	IPAddress    string         `json:"ipAddress"`
	UserAgent    string         `json:"userAgent"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Execer is the subset of pgxpool.Pool used for audit writes.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db Execer
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.UserID == "" || log.Action == "" || log.ResourceType == "" || log.ResourceID == "" {
		return ErrAuditInvalid
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	oldJSON, err := marshalValues(log.OldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalValues(log.NewValues)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (id, "userId", action, "resourceType", "resourceId", "oldValues", "newValues", "ipAddress", "userAgent", timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, log.UserID, log.Action, log.ResourceType, log.ResourceID, oldJSON, newJSON, log.IPAddress, log.UserAgent, log.Timestamp)
	return err
}

func marshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	return json.Marshal(values)
}
