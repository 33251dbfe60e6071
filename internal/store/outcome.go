package store

import (
	"time"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
)

// Phase is the lifecycle stage of an asynchronous operation.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// Outcome is one committed state transition. Asynchronous operations commit a
// pending outcome followed by exactly one fulfilled or rejected outcome.
// Synchronous actions carry no phase.
type Outcome struct {
	Op      string    `json:"op"`
	Phase   Phase     `json:"phase,omitempty"`
	Arg     any       `json:"arg,omitempty"`
	Payload any       `json:"payload,omitempty"`
	Err     string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Type renders the tag observers match on, e.g. "projects/createProject/fulfilled".
func (o Outcome) Type() string {
	if o.Phase == "" {
		return o.Op
	}
	return o.Op + "/" + string(o.Phase)
}

// Fulfilled reports whether o resolved successfully.
func (o Outcome) Fulfilled() bool { return o.Phase == PhaseFulfilled }

// Rejected reports whether o resolved with an error.
func (o Outcome) Rejected() bool { return o.Phase == PhaseRejected }

// AuthPayload is the result of an authentication transition.
type AuthPayload struct {
	Session *backend.AuthSession `json:"session"`
	User    *model.User          `json:"user"`
}

// Deleted is the result of a removal.
type Deleted struct {
	ID string `json:"id"`
}

func (d Deleted) GetID() string { return d.ID }

// ProjectPage is one page of the project listing.
type ProjectPage struct {
	Items   []model.Project `json:"items"`
	Page    int             `json:"page"`
	Total   int             `json:"total"`
	HasMore bool            `json:"hasMore"`
}

// ReadAll marks every notification of a user as read.
type ReadAll struct {
	UserID string `json:"userId"`
}

// SyncStatus describes the external calendar sync.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// ThemeMode is the colour scheme.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)
