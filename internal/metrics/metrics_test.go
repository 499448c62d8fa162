package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	origReg := prometheus.DefaultRegisterer
	origGather := prometheus.DefaultGatherer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGather
	})
	return reg
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = Noop{}
	m.ObserveRetention("primary", "tiered", 1, 2, 3, 0.5)
	m.IncPlaced("primary", "ok")
}

func find(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestPromMetrics(t *testing.T) {
	reg := withTestRegistry(t)
	m := NewProm("dumpkeeper")
	m.ObserveRetention("primary", "tiered", 8, 32, 1, 0.2)
	m.ObserveRetention("primary", "tiered", 8, 0, 0, 0.1)
	m.IncPlaced("primary", "ok")

	families, err := reg.Gather()
	require.NoError(t, err)

	runs := find(families, "dumpkeeper_retention_runs_total")
	require.NotNil(t, runs)
	assert.Equal(t, 2.0, runs.GetMetric()[0].GetCounter().GetValue())

	deleted := find(families, "dumpkeeper_retention_deleted_total")
	require.NotNil(t, deleted)
	assert.Equal(t, 32.0, deleted.GetMetric()[0].GetCounter().GetValue())

	kept := find(families, "dumpkeeper_retention_kept")
	require.NotNil(t, kept)
	assert.Equal(t, 8.0, kept.GetMetric()[0].GetGauge().GetValue())

	placed := find(families, "dumpkeeper_dumps_placed_total")
	require.NotNil(t, placed)
	assert.Equal(t, 1.0, placed.GetMetric()[0].GetCounter().GetValue())
}

func TestHandlerServesMetrics(t *testing.T) {
	withTestRegistry(t)
	NewProm("dumpkeeper").IncPlaced("primary", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "dumpkeeper_dumps_placed_total"))
}
