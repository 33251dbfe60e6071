package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecrew/sitecrew/internal/backend/memory"
	"github.com/sitecrew/sitecrew/internal/shared"
)

func seedTrail(t *testing.T, n int) *memory.Tables {
	t.Helper()
	tables := memory.NewTables()
	sink := NewTableSink(tables)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, sink.Record(context.Background(), shared.AuditLog{
			UserID:       "u-1",
			Action:       "projects/updateProject/fulfilled",
			ResourceType: "project",
			ResourceID:   fmt.Sprintf("p-%d", i),
			IPAddress:    shared.Unknown,
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, sink.Record(context.Background(), shared.AuditLog{
		UserID: "u-2", Action: "teams/createTeam/fulfilled", ResourceType: "team", ResourceID: "t-1",
		Timestamp: base.Add(-48 * time.Hour),
	}))
	return tables
}

func TestTimelinePaging(t *testing.T) {
	svc := NewService(seedTrail(t, 3))
	res, err := svc.Timeline(context.Background(), TimelineFilters{Actor: "u-1", PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "p-2", res.Rows[0].ResourceID)
	assert.True(t, res.Paging.HasNext)
	assert.Equal(t, 2, res.Paging.NextPage)

	res, err = svc.Timeline(context.Background(), TimelineFilters{Actor: "u-1", PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.False(t, res.Paging.HasNext)
	assert.Equal(t, 1, res.Paging.PrevPage)
}

func TestTimelineFilters(t *testing.T) {
	svc := NewService(seedTrail(t, 3))
	res, err := svc.Timeline(context.Background(), TimelineFilters{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)

	res, err = svc.Timeline(context.Background(), TimelineFilters{ResourceType: "team"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "u-2", res.Rows[0].Actor)
	assert.Equal(t, 20, res.Paging.PageSize)
}

func TestExportCSV(t *testing.T) {
	svc := NewService(seedTrail(t, 2))
	rows, err := svc.Export(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	out, err := WriteCSV(rows)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "at,actor,action,resource_type,resource_id,ip_address", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2026-03-01T09:00:00Z,u-1,"))
}

func TestTableSinkRejectsIncompleteRecord(t *testing.T) {
	err := NewTableSink(memory.NewTables()).Record(context.Background(), shared.AuditLog{UserID: "u-1"})
	assert.ErrorIs(t, err, shared.ErrAuditInvalid)
}
