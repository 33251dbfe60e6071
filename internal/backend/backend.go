// Package backend declares the contracts of the hosted auth, table and
// realtime services the application runs against.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoSession indicates the provider holds no active session.
	ErrNoSession = errors.New("backend: no active session")
	// ErrUnknownTable indicates a table outside the catalog.
	ErrUnknownTable = errors.New("backend: unknown table")
	// ErrNotFound indicates a row lookup matched nothing.
	ErrNotFound = errors.New("backend: row not found")
	// ErrInvalidFilter indicates a malformed filter expression.
	ErrInvalidFilter = errors.New("backend: invalid filter")
)

// Row is a single record keyed by column name.
type Row = map[string]any

// Table names.
const (
	TableUsers              = "users"
	TableProjects           = "projects"
	TableProjectTimelines   = "project_timelines"
	TableTeams              = "teams"
	TableTeamMembers        = "team_members"
	TableWorkRecords        = "work_records"
	TablePayrollRecords     = "payroll_records"
	TableFortnightlyReports = "fortnightly_reports"
	TableNotifications      = "notifications"
	TableCalendarEvents     = "calendar_events"
	TableAuditLogs          = "audit_logs"
)

var tables = map[string]struct{}{
	TableUsers:              {},
	TableProjects:           {},
	TableProjectTimelines:   {},
	TableTeams:              {},
	TableTeamMembers:        {},
	TableWorkRecords:        {},
	TablePayrollRecords:     {},
	TableFortnightlyReports: {},
	TableNotifications:      {},
	TableCalendarEvents:     {},
	TableAuditLogs:          {},
}

// KnownTable reports whether name is in the catalog.
func KnownTable(name string) bool {
	_, ok := tables[name]
	return ok
}

// AuthUser is the identity record held by the auth provider.
type AuthUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AuthSession is an authenticated session issued by the auth provider.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AuthUser  `json:"user"`
}

// Expired reports whether the access token is past its expiry.
func (s AuthSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// OAuthProvider names a federated identity provider.
type OAuthProvider string

const (
	OAuthGoogle OAuthProvider = "google"
	OAuthApple  OAuthProvider = "apple"
)

// SignUpInput carries registration details.
type SignUpInput struct {
	Email    string
	Password string
	Metadata map[string]any
}

// AuthProvider is the hosted authentication service.
type AuthProvider interface {
	// GetSession returns the stored session or ErrNoSession.
	GetSession(ctx context.Context) (*AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error)
	SignUp(ctx context.Context, in SignUpInput) (*AuthSession, error)
	SignInWithOAuth(ctx context.Context, provider OAuthProvider) (*AuthSession, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*AuthUser, error)
}

// FilterOp is a comparison operator.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpGte FilterOp = "gte"
	OpLte FilterOp = "lte"
)

// Filter constrains one column.
type Filter struct {
	Column string
	Op     FilterOp
	Value  string
}

// Eq builds an equality filter.
func Eq(column, value string) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// Gte builds a lower-bound filter.
func Gte(column, value string) Filter { return Filter{Column: column, Op: OpGte, Value: value} }

// Lte builds an upper-bound filter.
func Lte(column, value string) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// String renders the filter as column=op.value. A zero filter renders empty.
func (f Filter) String() string {
	if f.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s=%s.%s", f.Column, f.Op, f.Value)
}

// IsZero reports whether the filter is unset.
func (f Filter) IsZero() bool {
	return f.Column == ""
}

// Match reports whether row satisfies the filter. Values compare as strings.
func (f Filter) Match(row Row) bool {
	if f.IsZero() {
		return true
	}
	raw, ok := row[f.Column]
	if !ok || raw == nil {
		return false
	}
	got := fmt.Sprint(raw)
	switch f.Op {
	case OpEq:
		return got == f.Value
	case OpGte:
		return got >= f.Value
	case OpLte:
		return got <= f.Value
	}
	return false
}

// ParseFilter parses the column=op.value form. An empty string yields a zero Filter.
func ParseFilter(raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Filter{}, nil
	}
	column, rest, ok := strings.Cut(raw, "=")
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
	op, value, ok := strings.Cut(rest, ".")
	if !ok {
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
	switch FilterOp(op) {
	case OpEq, OpGte, OpLte:
	default:
		return Filter{}, fmt.Errorf("%w: operator %q", ErrInvalidFilter, op)
	}
	return Filter{Column: column, Op: FilterOp(op), Value: value}, nil
}

// Query describes a select against a table.
type Query struct {
	Filters []Filter
	Order   string
	Desc    bool
	Limit   int
	Offset  int
	// Count requests the total number of matching rows, ignoring Limit and Offset.
	Count bool
}

// Result is the outcome of a Select.
type Result struct {
	Rows  []Row
	Count int
}

// TableStore is the hosted table API.
type TableStore interface {
	Select(ctx context.Context, table string, q Query) (Result, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, id string, patch Row) (Row, error)
	Delete(ctx context.Context, table string, id string) error
}

// EventType labels a change feed event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangePayload is one row change delivered by the realtime feed.
type ChangePayload struct {
	EventType EventType `json:"eventType"`
	Table     string    `json:"table"`
	New       Row       `json:"new,omitempty"`
	Old       Row       `json:"old,omitempty"`
}

// ChangeHandler receives feed events.
type ChangeHandler func(ChangePayload)

// Handle is an open realtime subscription.
type Handle interface {
	Table() string
	Filter() Filter
	Unsubscribe() error
}

// Realtime is the hosted change feed.
type Realtime interface {
	Subscribe(ctx context.Context, table string, filter Filter, fn ChangeHandler) (Handle, error)
}
