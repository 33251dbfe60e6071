package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Service reads the audit trail back out of audit_logs.
type Service struct {
	tables backend.TableStore
}

// NewService membuat service audit timeline baru.
func NewService(tables backend.TableStore) *Service {
	return &Service{tables: tables}
}

// Timeline mengambil data audit dengan paging, terbaru lebih dulu.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s == nil || s.tables == nil {
		return Result{}, fmt.Errorf("audit: table store not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	res, err := s.tables.Select(ctx, backend.TableAuditLogs, backend.Query{
		Filters: toFilters(filters),
		Order:   "timestamp",
		Desc:    true,
		Limit:   pageSize + 1,
		Offset:  (page - 1) * pageSize,
	})
	if err != nil {
		return Result{}, fmt.Errorf("audit: timeline: %w", err)
	}
	rows := res.Rows
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	out, err := mapRows(rows)
	if err != nil {
		return Result{}, err
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: out, Paging: paging}, nil
}

// Export mengambil seluruh data timeline tanpa paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s == nil || s.tables == nil {
		return nil, fmt.Errorf("audit: table store not configured")
	}
	res, err := s.tables.Select(ctx, backend.TableAuditLogs, backend.Query{
		Filters: toFilters(filters),
		Order:   "timestamp",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("audit: export: %w", err)
	}
	return mapRows(res.Rows)
}

func toFilters(f TimelineFilters) []backend.Filter {
	var out []backend.Filter
	if !f.From.IsZero() {
		out = append(out, backend.Gte("timestamp", f.From.UTC().Format(time.RFC3339)))
	}
	if !f.To.IsZero() {
		out = append(out, backend.Lte("timestamp", f.To.UTC().Format(time.RFC3339)))
	}
	if v := strings.TrimSpace(f.Actor); v != "" {
		out = append(out, backend.Eq("userId", v))
	}
	if v := strings.TrimSpace(f.ResourceType); v != "" {
		out = append(out, backend.Eq("resourceType", v))
	}
	if v := strings.TrimSpace(f.Action); v != "" {
		out = append(out, backend.Eq("action", v))
	}
	return out
}

func mapRows(rows []backend.Row) ([]TimelineRow, error) {
	logs, err := model.DecodeAll[shared.AuditLog](rows)
	if err != nil {
		return nil, fmt.Errorf("audit: decode: %w", err)
	}
	out := make([]TimelineRow, 0, len(logs))
	for _, l := range logs {
		out = append(out, TimelineRow{
			At:           l.Timestamp,
			Actor:        l.UserID,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			IPAddress:    l.IPAddress,
		})
	}
	return out, nil
}
