// Package reports generates fortnightly progress reports.
package reports

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

// Fortnight is the default reporting period.
const Fortnight = 14 * 24 * time.Hour

// GenerateInput is the payload of generateReport. A zero PeriodEnd closes the
// period one fortnight after PeriodStart.
type GenerateInput struct {
	ProjectID         string    `json:"projectId" validate:"required"`
	PeriodStart       time.Time `json:"periodStart" validate:"required"`
	PeriodEnd         time.Time `json:"periodEnd"`
	Summary           string    `json:"summary"`
	ProgressAchieved  float64   `json:"progressAchieved" validate:"gte=0,lte=100"`
	CostIncurred      float64   `json:"costIncurred" validate:"gte=0"`
	IssuesEncountered []string  `json:"issuesEncountered"`
	NextSteps         []string  `json:"nextSteps"`
	Photos            []string  `json:"photos" validate:"dive,url"`
}

// Service handles report operations.
type Service struct {
	tables   backend.TableStore
	store    *store.Store
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(tables backend.TableStore, st *store.Store, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, store: st, engine: engine, validate: validator.New(), logger: logger}
}

// FetchReports lists reports, latest period first, optionally for one project.
func (s *Service) FetchReports(ctx context.Context, projectID string) ([]model.FortnightlyReport, error) {
	return store.Run(ctx, s.store, store.OpFetchReports, projectID, func(ctx context.Context) ([]model.FortnightlyReport, error) {
		if _, err := s.store.State().Authorize(s.engine, shared.PermReportsView); err != nil {
			return nil, err
		}
		var filters []backend.Filter
		if projectID != "" {
			filters = append(filters, backend.Eq("projectId", projectID))
		}
		res, err := s.tables.Select(ctx, backend.TableFortnightlyReports, backend.Query{Filters: filters, Order: "periodStart", Desc: true})
		if err != nil {
			return nil, fmt.Errorf("reports: fetch: %w", err)
		}
		return model.DecodeAll[model.FortnightlyReport](res.Rows)
	})
}

// GenerateReport stores a report authored by the actor. Without a summary one
// is derived from the hours logged against the project in the period.
func (s *Service) GenerateReport(ctx context.Context, in GenerateInput) (model.FortnightlyReport, error) {
	return store.Run(ctx, s.store, store.OpGenerateReport, in, func(ctx context.Context) (model.FortnightlyReport, error) {
		actor, err := s.store.State().Authorize(s.engine, shared.PermReportsGenerate)
		if err != nil {
			return model.FortnightlyReport{}, err
		}
		if err := s.validate.Struct(in); err != nil {
			return model.FortnightlyReport{}, err
		}
		if in.PeriodEnd.IsZero() {
			in.PeriodEnd = in.PeriodStart.Add(Fortnight)
		}
		if in.PeriodEnd.Before(in.PeriodStart) {
			return model.FortnightlyReport{}, fmt.Errorf("reports: period ends before it starts")
		}
		summary := in.Summary
		if summary == "" {
			summary, err = s.summarise(ctx, in)
			if err != nil {
				return model.FortnightlyReport{}, err
			}
		}
		row, err := model.ToRow(model.FortnightlyReport{
			ProjectID:         in.ProjectID,
			PeriodStart:       in.PeriodStart,
			PeriodEnd:         in.PeriodEnd,
			Summary:           summary,
			ProgressAchieved:  in.ProgressAchieved,
			CostIncurred:      in.CostIncurred,
			IssuesEncountered: in.IssuesEncountered,
			NextSteps:         in.NextSteps,
			Photos:            in.Photos,
			GeneratedBy:       actor.ID,
		})
		if err != nil {
			return model.FortnightlyReport{}, err
		}
		created, err := s.tables.Insert(ctx, backend.TableFortnightlyReports, row)
		if err != nil {
			return model.FortnightlyReport{}, fmt.Errorf("reports: generate: %w", err)
		}
		return model.Decode[model.FortnightlyReport](created)
	})
}

func (s *Service) summarise(ctx context.Context, in GenerateInput) (string, error) {
	res, err := s.tables.Select(ctx, backend.TableWorkRecords, backend.Query{Filters: []backend.Filter{
		backend.Eq("projectId", in.ProjectID),
		backend.Gte("date", in.PeriodStart.UTC().Format(time.RFC3339)),
		backend.Lte("date", in.PeriodEnd.UTC().Format(time.RFC3339)),
	}})
	if err != nil {
		return "", fmt.Errorf("reports: load work records: %w", err)
	}
	records, err := model.DecodeAll[model.WorkRecord](res.Rows)
	if err != nil {
		return "", err
	}
	var hours float64
	workers := map[string]struct{}{}
	for _, r := range records {
		hours += r.HoursWorked
		workers[r.UserID] = struct{}{}
	}
	return fmt.Sprintf("%.1f hours logged by %d workers between %s and %s",
		hours, len(workers), in.PeriodStart.Format(time.DateOnly), in.PeriodEnd.Format(time.DateOnly)), nil
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpReportsClearError, nil)
}
