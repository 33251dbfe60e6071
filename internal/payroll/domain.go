// Package payroll runs timesheet and pay-run operations.
package payroll

import (
	"errors"
	"time"

	"github.com/sitecrew/sitecrew/internal/model"
)

// ErrNotApprovable indicates a pay run that has already left the approval queue.
var ErrNotApprovable = errors.New("payroll: record is not awaiting approval")

// WorkRecordQuery narrows fetchWorkRecords. An empty UserID lists everyone the
// actor may see.
type WorkRecordQuery struct {
	UserID    string `json:"userId,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

// WorkRecordInput is the payload of createWorkRecord. An empty UserID logs
// hours for the actor.
type WorkRecordInput struct {
	UserID      string    `json:"userId"`
	ProjectID   string    `json:"projectId" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	HoursWorked float64   `json:"hoursWorked" validate:"gt=0,lte=24"`
	Description string    `json:"description" validate:"required"`
	TaskType    string    `json:"taskType" validate:"required"`
}

func (in WorkRecordInput) record() model.WorkRecord {
	return model.WorkRecord{
		UserID:      in.UserID,
		ProjectID:   in.ProjectID,
		Date:        in.Date,
		HoursWorked: in.HoursWorked,
		Description: in.Description,
		TaskType:    in.TaskType,
	}
}

func approvable(status model.PayrollStatus) bool {
	return status == model.PayrollDraft || status == model.PayrollPendingApproval
}
