package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// promVecs holds the Prometheus collectors shared by every
// Prometheus-backed Recorder, registered exactly once per process via
// promauto regardless of how many pools instantiate one.
type promVecs struct {
	idle        *prometheus.GaugeVec
	total       *prometheus.GaugeVec
	waiters     *prometheus.GaugeVec
	checkouts   *prometheus.CounterVec
	waitSeconds *prometheus.HistogramVec
	createErr   *prometheus.CounterVec
}

var (
	vecsOnce sync.Once
	vecs     *promVecs
)

func sharedVecs() *promVecs {
	vecsOnce.Do(func() {
		vecs = &promVecs{
			idle: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "genpool_connections_idle",
				Help: "Number of idle connections in the pool",
			}, []string{"pool"}),
			total: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "genpool_connections_total",
				Help: "Total connections owned by the pool (idle + in-use + in-flight)",
			}, []string{"pool"}),
			waiters: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "genpool_checkout_waiters",
				Help: "Number of goroutines currently blocked in Checkout",
			}, []string{"pool"}),
			checkouts: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "genpool_checkouts_total",
				Help: "Total Checkout calls by outcome",
			}, []string{"pool", "outcome"}),
			waitSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "genpool_checkout_wait_seconds",
				Help:    "Time Checkout spent blocked before resolving",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			}, []string{"pool"}),
			createErr: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "genpool_create_errors_total",
				Help: "Total Manager.Create failures",
			}, []string{"pool"}),
		}
	})
	return vecs
}

// Prometheus is a Recorder that publishes every event as Prometheus
// metrics labelled by pool name.
type Prometheus struct {
	name string
	v    *promVecs
}

// NewPrometheus returns a Recorder that reports under the given pool
// name label. Collectors are registered once per process (via
// sync.Once) and reused across every pool instance, so constructing
// many Prometheus recorders never panics on duplicate registration.
func NewPrometheus(poolName string) *Prometheus {
	return &Prometheus{name: poolName, v: sharedVecs()}
}

func (p *Prometheus) SetIdle(n int)    { p.v.idle.WithLabelValues(p.name).Set(float64(n)) }
func (p *Prometheus) SetTotal(n int)   { p.v.total.WithLabelValues(p.name).Set(float64(n)) }
func (p *Prometheus) SetWaiters(n int) { p.v.waiters.WithLabelValues(p.name).Set(float64(n)) }

func (p *Prometheus) IncCheckout(outcome string) {
	p.v.checkouts.WithLabelValues(p.name, outcome).Inc()
}

func (p *Prometheus) ObserveWait(seconds float64) {
	p.v.waitSeconds.WithLabelValues(p.name).Observe(seconds)
}

func (p *Prometheus) IncCreateError() {
	p.v.createErr.WithLabelValues(p.name).Inc()
}

var _ Recorder = (*Prometheus)(nil)
