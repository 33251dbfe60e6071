package store

import (
	"time"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
)

// AuthState is the session slice.
type AuthState struct {
	User            *model.User          `json:"user"`
	Session         *backend.AuthSession `json:"session"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	IsInitialized   bool                 `json:"isInitialized"`
	IsLoading       bool                 `json:"isLoading"`
	Error           string               `json:"error,omitempty"`
}

// ThemeState is the colour scheme slice.
type ThemeState struct {
	Mode ThemeMode `json:"mode"`
}

// ProjectsState holds the project listing and the open project.
type ProjectsState struct {
	Items     []model.Project         `json:"items"`
	Current   *model.Project          `json:"current,omitempty"`
	Timeline  []model.ProjectTimeline `json:"timeline"`
	Page      int                     `json:"page"`
	Total     int                     `json:"total"`
	HasMore   bool                    `json:"hasMore"`
	IsLoading bool                    `json:"isLoading"`
	Error     string                  `json:"error,omitempty"`
}

// TeamsState holds crews.
type TeamsState struct {
	Items     []model.Team `json:"items"`
	Current   *model.Team  `json:"current,omitempty"`
	IsLoading bool         `json:"isLoading"`
	Error     string       `json:"error,omitempty"`
}

// PayrollState holds timesheets and pay runs.
type PayrollState struct {
	WorkRecords []model.WorkRecord    `json:"workRecords"`
	Records     []model.PayrollRecord `json:"records"`
	IsLoading   bool                  `json:"isLoading"`
	Error       string                `json:"error,omitempty"`
}

// NotificationsState holds the inbox.
type NotificationsState struct {
	Items       []model.Notification `json:"items"`
	UnreadCount int                  `json:"unreadCount"`
	IsLoading   bool                 `json:"isLoading"`
	Error       string               `json:"error,omitempty"`
}

// CalendarState holds scheduled events.
type CalendarState struct {
	Events       []model.CalendarEvent `json:"events"`
	SyncStatus   SyncStatus            `json:"syncStatus"`
	LastSyncedAt *time.Time            `json:"lastSyncedAt,omitempty"`
	IsLoading    bool                  `json:"isLoading"`
	Error        string                `json:"error,omitempty"`
}

// ReportsState holds fortnightly reports.
type ReportsState struct {
	Items        []model.FortnightlyReport `json:"items"`
	IsLoading    bool                      `json:"isLoading"`
	IsGenerating bool                      `json:"isGenerating"`
	Error        string                    `json:"error,omitempty"`
}

// UsersState holds the staff directory.
type UsersState struct {
	Items     []model.User `json:"items"`
	IsLoading bool         `json:"isLoading"`
	Error     string       `json:"error,omitempty"`
}

// State is the whole client state. Reducers never mutate slices in place, so a
// State value can be shared once read.
type State struct {
	Auth          AuthState          `json:"auth"`
	Theme         ThemeState         `json:"theme"`
	Projects      ProjectsState      `json:"projects"`
	Teams         TeamsState         `json:"teams"`
	Payroll       PayrollState       `json:"payroll"`
	Notifications NotificationsState `json:"notifications"`
	Calendar      CalendarState      `json:"calendar"`
	Reports       ReportsState       `json:"reports"`
	Users         UsersState         `json:"users"`
}

// InitialState is the state at process start.
func InitialState() State {
	return State{
		Theme:    ThemeState{Mode: ThemeLight},
		Calendar: CalendarState{SyncStatus: SyncIdle},
	}
}

// CurrentUser returns the signed-in user, if any.
func (s State) CurrentUser() (model.User, bool) {
	if !s.Auth.IsAuthenticated || s.Auth.User == nil {
		return model.User{}, false
	}
	return *s.Auth.User, true
}

// Role returns the signed-in user's role.
func (s State) Role() (rbac.Role, bool) {
	u, ok := s.CurrentUser()
	if !ok {
		return "", false
	}
	return u.Role, true
}
