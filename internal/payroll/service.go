package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// Service handles work records and payroll records.
type Service struct {
	tables   backend.TableStore
	store    *store.Store
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(tables backend.TableStore, st *store.Store, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, store: st, engine: engine, validate: validator.New(), logger: logger, now: time.Now}
}

// FetchWorkRecords lists timesheet entries, newest first. Reading anyone
// else's entries requires work_records:view_all; without it an unscoped query
// falls back to the actor's own entries.
func (s *Service) FetchWorkRecords(ctx context.Context, q WorkRecordQuery) ([]model.WorkRecord, error) {
	return store.Run(ctx, s.store, store.OpFetchWorkRecords, q, func(ctx context.Context) ([]model.WorkRecord, error) {
		actor, err := s.store.State().Actor()
		if err != nil {
			return nil, err
		}
		viewAll := s.engine.Allowed(actor.Role, shared.PermWorkRecordsViewAll)
		userID := q.UserID
		switch {
		case userID == "" && !viewAll:
			userID = actor.ID
		case userID != "" && userID != actor.ID && !viewAll:
			return nil, rbac.ErrPermissionDenied
		}
		var filters []backend.Filter
		if userID != "" {
			filters = append(filters, backend.Eq("userId", userID))
		}
		if q.ProjectID != "" {
			filters = append(filters, backend.Eq("projectId", q.ProjectID))
		}
		res, err := s.tables.Select(ctx, backend.TableWorkRecords, backend.Query{Filters: filters, Order: "date", Desc: true})
		if err != nil {
			return nil, fmt.Errorf("payroll: fetch work records: %w", err)
		}
		return model.DecodeAll[model.WorkRecord](res.Rows)
	})
}

// CreateWorkRecord logs hours. Logging one's own hours needs
// work_records:create_own or payroll:create; logging for someone else needs
// payroll:create.
func (s *Service) CreateWorkRecord(ctx context.Context, in WorkRecordInput) (model.WorkRecord, error) {
	return store.Run(ctx, s.store, store.OpCreateWorkRecord, in, func(ctx context.Context) (model.WorkRecord, error) {
		actor, err := s.store.State().Actor()
		if err != nil {
			return model.WorkRecord{}, err
		}
		if in.UserID == "" {
			in.UserID = actor.ID
		}
		allowed := s.engine.Allowed(actor.Role, shared.PermPayrollCreate)
		if in.UserID == actor.ID && !allowed {
			allowed = s.engine.Allowed(actor.Role, shared.PermWorkRecordsCreateOwn)
		}
		if !allowed {
			return model.WorkRecord{}, rbac.ErrPermissionDenied
		}
		if err := s.validate.Struct(in); err != nil {
			return model.WorkRecord{}, err
		}
		row, err := model.ToRow(in.record())
		if err != nil {
			return model.WorkRecord{}, err
		}
		created, err := s.tables.Insert(ctx, backend.TableWorkRecords, row)
		if err != nil {
			return model.WorkRecord{}, fmt.Errorf("payroll: create work record: %w", err)
		}
		return model.Decode[model.WorkRecord](created)
	})
}

// ApproveWorkRecord signs off a timesheet entry.
func (s *Service) ApproveWorkRecord(ctx context.Context, id string) (model.WorkRecord, error) {
	return store.Run(ctx, s.store, store.OpApproveWorkRecord, id, func(ctx context.Context) (model.WorkRecord, error) {
		actor, err := s.store.State().Authorize(s.engine, shared.PermWorkRecordsApprove)
		if err != nil {
			return model.WorkRecord{}, err
		}
		updated, err := s.tables.Update(ctx, backend.TableWorkRecords, id, backend.Row{
			"isApproved": true,
			"approvedBy": actor.ID,
			"approvedAt": s.now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return model.WorkRecord{}, fmt.Errorf("payroll: approve work record %s: %w", id, err)
		}
		return model.Decode[model.WorkRecord](updated)
	})
}

// FetchPayrollRecords lists pay runs, latest period first. An empty userID or
// another user's id requires payroll:view_all.
func (s *Service) FetchPayrollRecords(ctx context.Context, userID string) ([]model.PayrollRecord, error) {
	return store.Run(ctx, s.store, store.OpFetchPayrollRecords, userID, func(ctx context.Context) ([]model.PayrollRecord, error) {
		actor, err := s.store.State().Actor()
		if err != nil {
			return nil, err
		}
		need := shared.PermPayrollViewAll
		if userID == actor.ID {
			need = shared.PermPayrollViewOwn
		}
		if err := s.engine.Authorize(actor.Role, need); err != nil {
			return nil, err
		}
		var filters []backend.Filter
		if userID != "" {
			filters = append(filters, backend.Eq("userId", userID))
		}
		res, err := s.tables.Select(ctx, backend.TablePayrollRecords, backend.Query{Filters: filters, Order: "periodStart", Desc: true})
		if err != nil {
			return nil, fmt.Errorf("payroll: fetch payroll records: %w", err)
		}
		return model.DecodeAll[model.PayrollRecord](res.Rows)
	})
}

// ApprovePayrollRecord approves a draft or pending pay run.
func (s *Service) ApprovePayrollRecord(ctx context.Context, id string) (model.PayrollRecord, error) {
	return store.Run(ctx, s.store, store.OpApprovePayrollRecord, id, func(ctx context.Context) (model.PayrollRecord, error) {
		if _, err := s.store.State().Authorize(s.engine, shared.PermPayrollApprove); err != nil {
			return model.PayrollRecord{}, err
		}
		res, err := s.tables.Select(ctx, backend.TablePayrollRecords, backend.Query{
			Filters: []backend.Filter{backend.Eq("id", id)},
			Limit:   1,
		})
		if err != nil {
			return model.PayrollRecord{}, fmt.Errorf("payroll: load %s: %w", id, err)
		}
		if len(res.Rows) == 0 {
			return model.PayrollRecord{}, fmt.Errorf("payroll: %s: %w", id, backend.ErrNotFound)
		}
		current, err := model.Decode[model.PayrollRecord](res.Rows[0])
		if err != nil {
			return model.PayrollRecord{}, err
		}
		if !approvable(current.Status) {
			return model.PayrollRecord{}, fmt.Errorf("%w: %s", ErrNotApprovable, current.Status)
		}
		updated, err := s.tables.Update(ctx, backend.TablePayrollRecords, id, backend.Row{"status": string(model.PayrollApproved)})
		if err != nil {
			return model.PayrollRecord{}, fmt.Errorf("payroll: approve %s: %w", id, err)
		}
		return model.Decode[model.PayrollRecord](updated)
	})
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpPayrollClearError, nil)
}
