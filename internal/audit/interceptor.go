// Package audit records sensitive operations and exposes the resulting trail.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

const defaultWriteTimeout = 5 * time.Second

// Sink persists audit records. shared.AuditLogger and jobs.Client satisfy it.
type Sink interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics receives interceptor counters. *observability.Metrics satisfies it.
type Metrics interface {
	AuditWrite(err error)
	AuditSkipped(reason string)
	OperationFailed(op string)
}

var sensitiveOps = map[string]struct{}{
	store.OpSignInWithEmail:  {},
	store.OpSignUpWithEmail:  {},
	store.OpUpdateProfile:    {},
	store.OpCreateProject:    {},
	store.OpUpdateProject:    {},
	store.OpDeleteProject:    {},
	store.OpCreateWorkRecord: {},
	store.OpCreateTeam:       {},
}

// Sensitive reports whether a fulfilled op must leave an audit record.
func Sensitive(op string) bool {
	_, ok := sensitiveOps[op]
	return ok
}

var resourceTypes = []struct {
	fragment string
	resource string
}{
	{"auth", "user"},
	{"project", "project"},
	{"team", "team"},
	{"payroll", "payroll"},
	{"notification", "notification"},
	{"calendar", "calendar"},
	{"report", "report"},
}

// ResourceType maps an operation tag onto the audited resource. The first
// matching fragment wins.
func ResourceType(op string) string {
	for _, rt := range resourceTypes {
		if strings.Contains(op, rt.fragment) {
			return rt.resource
		}
	}
	return shared.Unknown
}

// ResourceID extracts the id of an operation result.
func ResourceID(payload any) string {
	switch v := payload.(type) {
	case model.Identifiable:
		if id := v.GetID(); id != "" {
			return id
		}
	case map[string]any:
		if id, ok := v["id"].(string); ok && id != "" {
			return id
		}
	}
	return shared.Unknown
}

// Interceptor observes committed outcomes. Fulfilled sensitive operations are
// written to the sink in the background; every rejected outcome is logged.
type Interceptor struct {
	sink    Sink
	logger  *slog.Logger
	metrics Metrics
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// Option customises an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(i *Interceptor) { i.metrics = m }
}

// WithTimeout bounds each background write.
func WithTimeout(d time.Duration) Option {
	return func(i *Interceptor) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// NewInterceptor constructs an Interceptor writing to sink.
func NewInterceptor(sink Sink, opts ...Option) *Interceptor {
	i := &Interceptor{
		sink:    sink,
		logger:  slog.Default(),
		timeout: defaultWriteTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Observe implements store.Observer.
func (i *Interceptor) Observe(ctx context.Context, o store.Outcome, s store.State) {
	if o.Rejected() {
		i.logger.Error("operation failed",
			slog.String("type", o.Type()),
			slog.String("error", o.Err),
			slog.Time("timestamp", o.At))
		if i.metrics != nil {
			i.metrics.OperationFailed(o.Op)
		}
		return
	}
	if !o.Fulfilled() || !Sensitive(o.Op) {
		return
	}
	user, ok := s.CurrentUser()
	if !ok || user.ID == "" {
		i.logger.Debug("audit skipped without actor", slog.String("type", o.Type()))
		if i.metrics != nil {
			i.metrics.AuditSkipped("no_actor")
		}
		return
	}

	client := shared.ClientFromContext(ctx)
	at := o.At
	if at.IsZero() {
		at = i.now()
	}
	record := shared.AuditLog{
		UserID:       user.ID,
		Action:       o.Type(),
		ResourceType: ResourceType(o.Op),
		ResourceID:   ResourceID(o.Payload),
		NewValues:    snapshot(o.Payload),
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		Timestamp:    at.UTC(),
	}
	i.write(context.WithoutCancel(ctx), record)
}

func (i *Interceptor) write(ctx context.Context, record shared.AuditLog) {
	if i.sink == nil {
		return
	}
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		writeCtx, cancel := context.WithTimeout(ctx, i.timeout)
		defer cancel()
		err := i.sink.Record(writeCtx, record)
		if i.metrics != nil {
			i.metrics.AuditWrite(err)
		}
		if err != nil {
			i.logger.Error("audit write failed",
				slog.String("action", record.Action),
				slog.String("resource_type", record.ResourceType),
				slog.Any("error", err))
		}
	}()
}

// Wait blocks until every background write has finished.
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

var redacted = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"password":      {},
}

// snapshot renders payload as JSON-shaped values with credentials removed.
func snapshot(payload any) map[string]any {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return map[string]any{"error": err.Error()}
	}
	obj, ok := scrub(decoded).(map[string]any)
	if !ok {
		return map[string]any{"value": decoded}
	}
	return obj
}

func scrub(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if _, ok := redacted[k]; ok {
				delete(t, k)
				continue
			}
			t[k] = scrub(inner)
		}
		return t
	case []any:
		for idx, inner := range t {
			t[idx] = scrub(inner)
		}
		return t
	}
	return v
}

var _ store.Observer = (*Interceptor)(nil)
