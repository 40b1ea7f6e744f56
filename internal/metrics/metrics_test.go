package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Op("insert", "ok")
	m.Op("insert", "ok")
	m.Cache(CacheHit)
	m.CacheEntries.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ops.WithLabelValues("insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvents.WithLabelValues(CacheHit)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tersemap_engine_ops_total")
	assert.Contains(t, names, "tersemap_cache_events_total")
	assert.Contains(t, names, "tersemap_cache_entries")
}

func TestMetrics_Unregistered(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil).Op("read", "not_found")
		New(nil).Op("read", "not_found")
	})
}
