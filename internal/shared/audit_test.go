package shared

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLoggerRecord(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := AuditLog{
		ID:           "a-1",
		UserID:       "u-1",
		Action:       "projects/deleteProject/fulfilled",
		ResourceType: "project",
		ResourceID:   "p-9",
		NewValues:    map[string]any{"id": "p-9"},
		IPAddress:    Unknown,
		UserAgent:    Unknown,
		Timestamp:    at,
	}
	mockPool.ExpectExec("INSERT INTO audit_logs").
		WithArgs("a-1", "u-1", entry.Action, "project", "p-9", []byte(nil), []byte(`{"id":"p-9"}`), Unknown, Unknown, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewAuditLogger(mockPool).Record(context.Background(), entry))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestAuditLoggerRejectsIncompleteRecord(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	err = NewAuditLogger(mockPool).Record(context.Background(), AuditLog{UserID: "u-1", Action: "x"})
	assert.ErrorIs(t, err, ErrAuditInvalid)

	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestClientFromContextDefaults(t *testing.T) {
	info := ClientFromContext(context.Background())
	assert.Equal(t, Unknown, info.IPAddress)
	assert.Equal(t, Unknown, info.UserAgent)

	ctx := ContextWithClient(context.Background(), ClientInfo{IPAddress: "10.0.0.4"})
	info = ClientFromContext(ctx)
	assert.Equal(t, "10.0.0.4", info.IPAddress)
	assert.Equal(t, Unknown, info.UserAgent)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 25)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, p.Offset())
	assert.True(t, p.HasNext())

	last := NewPagination(3, 10, 25)
	assert.Equal(t, 20, last.Offset())
	assert.False(t, last.HasNext())
}
