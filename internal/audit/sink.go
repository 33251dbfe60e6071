package audit

import (
	"context"
	"fmt"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// TableSink writes records through the table API into audit_logs.
type TableSink struct {
	tables backend.TableStore
}

// NewTableSink constructs a TableSink.
func NewTableSink(tables backend.TableStore) *TableSink {
	return &TableSink{tables: tables}
}

// Record inserts log.
func (s *TableSink) Record(ctx context.Context, log shared.AuditLog) error {
	if log.UserID == "" || log.Action == "" || log.ResourceType == "" || log.ResourceID == "" {
		return shared.ErrAuditInvalid
	}
	row, err := model.ToRow(log)
	if err != nil {
		return err
	}
	if _, err := s.tables.Insert(ctx, backend.TableAuditLogs, row); err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}
