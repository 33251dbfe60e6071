// Package model holds the domain entities exchanged with the backend.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sitecrew/sitecrew/internal/rbac"
)

// Identifiable is implemented by entities carrying a primary key.
type Identifiable interface {
	GetID() string
}

// User is the profile row attached to an authenticated account.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	Role      rbac.Role  `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (u User) GetID() string { return u.ID }

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ProjectStatus tracks project lifecycle.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Project is a construction job.
type Project struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Address       string            `json:"address"`
	StartDate     time.Time         `json:"startDate"`
	EndDate       time.Time         `json:"endDate"`
	EstimatedCost float64           `json:"estimatedCost"`
	ActualCost    float64           `json:"actualCost"`
	Revenue       float64           `json:"revenue"`
	Status        ProjectStatus     `json:"status"`
	Progress      float64           `json:"progress"`
	ClientID      string            `json:"clientId"`
	ManagerID     string            `json:"managerId"`
	ForemanID     string            `json:"foremanId,omitempty"`
	TeamMembers   []string          `json:"teamMembers,omitempty"`
	Timeline      []ProjectTimeline `json:"timeline,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (p Project) GetID() string { return p.ID }

// TimelineStatus tracks a timeline item.
type TimelineStatus string

const (
	TimelineNotStarted TimelineStatus = "not_started"
	TimelineInProgress TimelineStatus = "in_progress"
	TimelineCompleted  TimelineStatus = "completed"
	TimelineDelayed    TimelineStatus = "delayed"
	TimelineBlocked    TimelineStatus = "blocked"
)

// ProjectTimeline is a scheduled phase of a project.
type ProjectTimeline struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"projectId"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	Progress     float64        `json:"progress"`
	Status       TimelineStatus `json:"status"`
	AssignedTo   []string       `json:"assignedTo,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (t ProjectTimeline) GetID() string { return t.ID }

// Team groups workers under a leader.
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	LeaderID    string       `json:"leaderId"`
	Members     []TeamMember `json:"members,omitempty"`
	ProjectIDs  []string     `json:"projectIds,omitempty"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (t Team) GetID() string { return t.ID }

// TeamMember is one roster entry.
type TeamMember struct {
	UserID     string    `json:"userId"`
	Role       rbac.Role `json:"role"`
	HourlyRate float64   `json:"hourlyRate"`
	JoinedAt   time.Time `json:"joinedAt"`
	IsActive   bool      `json:"isActive"`
}

// WorkRecord is a timesheet entry.
type WorkRecord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	ProjectID   string     `json:"projectId"`
	Date        time.Time  `json:"date"`
	HoursWorked float64    `json:"hoursWorked"`
	Description string     `json:"description"`
	TaskType    string     `json:"taskType"`
	IsApproved  bool       `json:"isApproved"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (w WorkRecord) GetID() string { return w.ID }

// PayrollStatus tracks a payroll run.
type PayrollStatus string

const (
	PayrollDraft           PayrollStatus = "draft"
	PayrollPendingApproval PayrollStatus = "pending_approval"
	PayrollApproved        PayrollStatus = "approved"
	PayrollPaid            PayrollStatus = "paid"
	PayrollRejected        PayrollStatus = "rejected"
)

// DeductionType categorises payroll deductions.
type DeductionType string

const (
	DeductionTax        DeductionType = "tax"
	DeductionUIF        DeductionType = "uif"
	DeductionMedicalAid DeductionType = "medical_aid"
	DeductionPension    DeductionType = "pension"
	DeductionOther      DeductionType = "other"
)

// PayrollDeduction is one line subtracted from gross pay.
type PayrollDeduction struct {
	Type        DeductionType `json:"type"`
	Amount      float64       `json:"amount"`
	Description string        `json:"description,omitempty"`
}

// PayrollRecord is a worker's pay for one period.
type PayrollRecord struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	PeriodStart   time.Time          `json:"periodStart"`
	PeriodEnd     time.Time          `json:"periodEnd"`
	RegularHours  float64            `json:"regularHours"`
	OvertimeHours float64            `json:"overtimeHours"`
	RegularRate   float64            `json:"regularRate"`
	OvertimeRate  float64            `json:"overtimeRate"`
	GrossPay      float64            `json:"grossPay"`
	Deductions    []PayrollDeduction `json:"deductions,omitempty"`
	NetPay        float64            `json:"netPay"`
	Status        PayrollStatus      `json:"status"`
	PaidAt        *time.Time         `json:"paidAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func (p PayrollRecord) GetID() string { return p.ID }

// FortnightlyReport summarises two weeks of progress on a project.
type FortnightlyReport struct {
	ID                string    `json:"id"`
	ProjectID         string    `json:"projectId"`
	PeriodStart       time.Time `json:"periodStart"`
	PeriodEnd         time.Time `json:"periodEnd"`
	Summary           string    `json:"summary"`
	ProgressAchieved  float64   `json:"progressAchieved"`
	CostIncurred      float64   `json:"costIncurred"`
	IssuesEncountered []string  `json:"issuesEncountered,omitempty"`
	NextSteps         []string  `json:"nextSteps,omitempty"`
	Photos            []string  `json:"photos,omitempty"`
	GeneratedBy       string    `json:"generatedBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (r FortnightlyReport) GetID() string { return r.ID }

// NotificationType categorises notifications.
type NotificationType string

const (
	NotificationProjectUpdate    NotificationType = "project_update"
	NotificationTimelineChange   NotificationType = "timeline_change"
	NotificationPayrollReady     NotificationType = "payroll_ready"
	NotificationReportGenerated  NotificationType = "report_generated"
	NotificationSystemAlert      NotificationType = "system_alert"
	NotificationCalendarReminder NotificationType = "calendar_reminder"
	NotificationTaskAssignment   NotificationType = "task_assignment"
	NotificationApprovalRequest  NotificationType = "approval_request"
)

// NotificationPriority ranks notifications.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Type        NotificationType     `json:"type"`
	Priority    NotificationPriority `json:"priority"`
	IsRead      bool                 `json:"isRead"`
	ActionURL   string               `json:"actionUrl,omitempty"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	ScheduledAt *time.Time           `json:"scheduledAt,omitempty"`
	SentAt      *time.Time           `json:"sentAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func (n Notification) GetID() string { return n.ID }

// CalendarSource identifies where an event originated.
type CalendarSource string

const (
	CalendarInternal CalendarSource = "internal"
	CalendarGoogle   CalendarSource = "google"
	CalendarOutlook  CalendarSource = "outlook"
	CalendarApple    CalendarSource = "apple"
)

// CalendarEvent is a scheduled meeting or site visit.
type CalendarEvent struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	StartDate       time.Time      `json:"startDate"`
	EndDate         time.Time      `json:"endDate"`
	IsAllDay        bool           `json:"isAllDay"`
	Location        string         `json:"location,omitempty"`
	ProjectID       string         `json:"projectId,omitempty"`
	Attendees       []string       `json:"attendees,omitempty"`
	ReminderMinutes []int          `json:"reminderMinutes,omitempty"`
	Source          CalendarSource `json:"source"`
	ExternalID      string         `json:"externalId,omitempty"`
	CreatedBy       string         `json:"createdBy"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (e CalendarEvent) GetID() string { return e.ID }

// Decode converts a backend row into T.
func Decode[T any](row map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(row)
	if err != nil {
		return out, fmt.Errorf("model: encode row: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("model: decode row: %w", err)
	}
	return out, nil
}

// DecodeAll converts rows into a slice of T.
func DecodeAll[T any](rows []map[string]any) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := Decode[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ToRow converts v into a column map. Zero-valued ids and timestamps are
// dropped so the backend assigns them.
func ToRow(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("model: encode: %w", err)
	}
	row := map[string]any{}
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("model: decode: %w", err)
	}
	if id, ok := row["id"].(string); ok && id == "" {
		delete(row, "id")
	}
	for _, key := range []string{"createdAt", "updatedAt"} {
		if ts, ok := row[key].(string); ok && ts == zeroTime {
			delete(row, key)
		}
	}
	return row, nil
}

var zeroTime = time.Time{}.Format(time.RFC3339Nano)
