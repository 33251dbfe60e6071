// Package memory provides in-process backends for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sitecrew/sitecrew/internal/backend"
)

// Tables is an in-memory backend.TableStore.
type Tables struct {
	mu   sync.RWMutex
	rows map[string][]backend.Row
	now  func() time.Time
}

// NewTables constructs an empty store.
func NewTables() *Tables {
	return &Tables{rows: map[string][]backend.Row{}, now: time.Now}
}

// Seed inserts rows verbatim.
func (t *Tables) Seed(table string, rows ...backend.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range rows {
		t.rows[table] = append(t.rows[table], maps.Clone(row))
	}
}

// Rows returns a copy of every row in table.
func (t *Tables) Rows(table string) []backend.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]backend.Row, 0, len(t.rows[table]))
	for _, row := range t.rows[table] {
		out = append(out, maps.Clone(row))
	}
	return out
}

func (t *Tables) Select(_ context.Context, table string, q backend.Query) (backend.Result, error) {
	if !backend.KnownTable(table) {
		return backend.Result{}, fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	t.mu.RLock()
	var matched []backend.Row
	for _, row := range t.rows[table] {
		if matchAll(q.Filters, row) {
			matched = append(matched, maps.Clone(row))
		}
	}
	t.mu.RUnlock()

	if q.Order != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := fmt.Sprint(matched[i][q.Order]), fmt.Sprint(matched[j][q.Order])
			if q.Desc {
				return a > b
			}
			return a < b
		})
	}
	res := backend.Result{Count: len(matched)}
	if !q.Count {
		res.Count = 0
	}
	start := min(q.Offset, len(matched))
	end := len(matched)
	if q.Limit > 0 {
		end = min(start+q.Limit, end)
	}
	res.Rows = slices.Clone(matched[start:end])
	if res.Rows == nil {
		res.Rows = []backend.Row{}
	}
	return res, nil
}

func matchAll(filters []backend.Filter, row backend.Row) bool {
	for _, f := range filters {
		if !f.Match(row) {
			return false
		}
	}
	return true
}

func (t *Tables) Insert(_ context.Context, table string, row backend.Row) (backend.Row, error) {
	if !backend.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	stored := maps.Clone(row)
	if id, _ := stored["id"].(string); id == "" {
		stored["id"] = uuid.NewString()
	}
	now := t.now().UTC().Format(time.RFC3339Nano)
	if _, ok := stored["createdAt"]; !ok {
		stored["createdAt"] = now
	}
	if _, ok := stored["updatedAt"]; !ok {
		stored["updatedAt"] = now
	}
	t.mu.Lock()
	t.rows[table] = append(t.rows[table], stored)
	t.mu.Unlock()
	return maps.Clone(stored), nil
}

func (t *Tables) Update(_ context.Context, table string, id string, patch backend.Row) (backend.Row, error) {
	if !backend.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, row := range t.rows[table] {
		if fmt.Sprint(row["id"]) != id {
			continue
		}
		updated := maps.Clone(row)
		for k, v := range patch {
			if k == "id" {
				continue
			}
			updated[k] = v
		}
		t.rows[table][i] = updated
		return maps.Clone(updated), nil
	}
	return nil, backend.ErrNotFound
}

func (t *Tables) Delete(_ context.Context, table string, id string) error {
	if !backend.KnownTable(table) {
		return fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := t.rows[table]
	for i, row := range rows {
		if fmt.Sprint(row["id"]) == id {
			t.rows[table] = slices.Delete(slices.Clone(rows), i, i+1)
			return nil
		}
	}
	return backend.ErrNotFound
}

var _ backend.TableStore = (*Tables)(nil)
