package jobmetrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("audit:write").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("audit:write").End(boom), boom)
	m.Enqueued("audit:write", nil)

	expected := `
# HELP sitecrew_jobs_total Total job executions partitioned by job name and status.
# TYPE sitecrew_jobs_total counter
sitecrew_jobs_total{job="audit:write",status="failure"} 1
sitecrew_jobs_total{job="audit:write",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "sitecrew_jobs_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.enqueued))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.Enqueued("x", nil)
}
