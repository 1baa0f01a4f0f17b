package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Poll outcomes used as the "result" label.
const (
	ResultOK        = "ok"
	ResultTransport = "transport"
	ResultStatus    = "status"
	ResultDecode    = "decode"
	ResultClosed    = "closed"
)

// Metrics holds the poll cycle collectors. A nil *Metrics records nothing.
type Metrics struct {
	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	units        prometheus.Gauge
	staleApplies prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imu_dashboard_polls_total",
			Help: "Total poll cycles by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imu_dashboard_poll_duration_seconds",
			Help:    "Histogram of /api/imu request durations.",
			Buckets: []float64{.005, .01, .025, .05, .1, .2, .5, 1, 2.5},
		}),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imu_dashboard_units",
			Help: "Number of units in the displayed snapshot.",
		}),
		staleApplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imu_dashboard_stale_applies_total",
			Help: "Snapshots applied after a snapshot from a later tick.",
		}),
	}

	reg.MustRegister(m.polls, m.pollDuration, m.units, m.staleApplies)
	return m
}

// ObservePoll records one finished poll.
func (m *Metrics) ObservePoll(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(d.Seconds())
}

// SetUnits records the size of the applied snapshot.
func (m *Metrics) SetUnits(n int) {
	if m == nil {
		return
	}
	m.units.Set(float64(n))
}

// IncStaleApply counts an out-of-order apply.
func (m *Metrics) IncStaleApply() {
	if m == nil {
		return
	}
	m.staleApplies.Inc()
}
