package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderReportsByPoolLabel(t *testing.T) {
	a := NewPrometheus("pool-a")
	b := NewPrometheus("pool-b")

	a.SetIdle(3)
	a.SetTotal(5)
	a.SetWaiters(1)
	a.IncCheckout("ok")
	a.IncCheckout("ok")
	a.IncCheckout("timeout")
	a.ObserveWait(0.02)
	a.IncCreateError()

	b.SetIdle(9)

	assert.Equal(t, float64(3), testutil.ToFloat64(vecs.idle.WithLabelValues("pool-a")))
	assert.Equal(t, float64(9), testutil.ToFloat64(vecs.idle.WithLabelValues("pool-b")))
	assert.Equal(t, float64(5), testutil.ToFloat64(vecs.total.WithLabelValues("pool-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(vecs.waiters.WithLabelValues("pool-a")))
	assert.Equal(t, float64(2), testutil.ToFloat64(vecs.checkouts.WithLabelValues("pool-a", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(vecs.checkouts.WithLabelValues("pool-a", "timeout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(vecs.createErr.WithLabelValues("pool-a")))
}

func TestNewPrometheusReusesSharedCollectors(t *testing.T) {
	first := NewPrometheus("shared-check")
	second := NewPrometheus("shared-check")
	require.Same(t, first.v, second.v, "collectors must be registered once per process, not per Recorder")
}
