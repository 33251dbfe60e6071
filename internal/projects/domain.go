// Package projects runs project and timeline operations through the store.
package projects

import (
	"time"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
)

// ProjectInput is the payload of createProject.
type ProjectInput struct {
	Name          string    `json:"name" validate:"required,max=200"`
	Description   string    `json:"description"`
	Address       string    `json:"address" validate:"required"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	EndDate       time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	EstimatedCost float64   `json:"estimatedCost" validate:"gte=0"`
	ClientID      string    `json:"clientId" validate:"required"`
	ManagerID     string    `json:"managerId"`
	ForemanID     string    `json:"foremanId"`
	TeamMembers   []string  `json:"teamMembers"`
}

func (in ProjectInput) project(managerID string) model.Project {
	p := model.Project{
		Name:          in.Name,
		Description:   in.Description,
		Address:       in.Address,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		EstimatedCost: in.EstimatedCost,
		Status:        model.ProjectPlanning,
		ClientID:      in.ClientID,
		ManagerID:     in.ManagerID,
		ForemanID:     in.ForemanID,
		TeamMembers:   in.TeamMembers,
	}
	if p.ManagerID == "" {
		p.ManagerID = managerID
	}
	return p
}

// ProjectPatch carries the fields updateProject may change. Nil fields are left alone.
type ProjectPatch struct {
	Name          *string              `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string              `json:"description,omitempty"`
	Address       *string              `json:"address,omitempty" validate:"omitempty,min=1"`
	StartDate     *time.Time           `json:"startDate,omitempty"`
	EndDate       *time.Time           `json:"endDate,omitempty"`
	EstimatedCost *float64             `json:"estimatedCost,omitempty" validate:"omitempty,gte=0"`
	ActualCost    *float64             `json:"actualCost,omitempty" validate:"omitempty,gte=0"`
	Revenue       *float64             `json:"revenue,omitempty" validate:"omitempty,gte=0"`
	Status        *model.ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=planning in_progress on_hold completed cancelled"`
	Progress      *float64             `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	ForemanID     *string              `json:"foremanId,omitempty"`
	TeamMembers   []string             `json:"teamMembers,omitempty"`
}

// TimelineInput is the payload of createTimelineItem.
type TimelineInput struct {
	ProjectID    string               `json:"projectId" validate:"required"`
	Title        string               `json:"title" validate:"required,max=200"`
	Description  string               `json:"description"`
	StartDate    time.Time            `json:"startDate" validate:"required"`
	EndDate      time.Time            `json:"endDate" validate:"required,gtefield=StartDate"`
	Status       model.TimelineStatus `json:"status" validate:"omitempty,oneof=not_started in_progress completed delayed blocked"`
	AssignedTo   []string             `json:"assignedTo"`
	Dependencies []string             `json:"dependencies"`
}

func (in TimelineInput) item() model.ProjectTimeline {
	status := in.Status
	if status == "" {
		status = model.TimelineNotStarted
	}
	return model.ProjectTimeline{
		ProjectID:    in.ProjectID,
		Title:        in.Title,
		Description:  in.Description,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Status:       status,
		AssignedTo:   in.AssignedTo,
		Dependencies: in.Dependencies,
	}
}

// TimelinePatch carries the fields updateTimelineItem may change.
type TimelinePatch struct {
	Title       *string               `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string               `json:"description,omitempty"`
	StartDate   *time.Time            `json:"startDate,omitempty"`
	EndDate     *time.Time            `json:"endDate,omitempty"`
	Progress    *float64              `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	Status      *model.TimelineStatus `json:"status,omitempty" validate:"omitempty,oneof=not_started in_progress completed delayed blocked"`
	AssignedTo  []string              `json:"assignedTo,omitempty"`
}

// patchRow renders a patch as columns. Nil fields are omitted, so only the
// supplied ones are written.
func patchRow(patch any) (backend.Row, error) {
	return model.ToRow(patch)
}
