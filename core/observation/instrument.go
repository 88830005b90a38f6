package observation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	obserr "github.com/adalundhe/branchobs/core/errors"
	"github.com/adalundhe/branchobs/core/solver"
)

// Metrics records extraction latency and failures, labelled by extractor.
type Metrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "branchobs",
				Name:      "extract_duration_seconds",
				Help:      "Time spent in a single Extract call",
				Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
			},
			[]string{"extractor"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "branchobs",
				Name:      "extract_errors_total",
				Help:      "Failed Reset and Extract calls by error kind",
			},
			[]string{"extractor", "kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.duration, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) fail(name string, err error) {
	m.failures.WithLabelValues(name, obserr.KindOf(err).String()).Inc()
}

type instrumented[T any] struct {
	name    string
	f       Function[T]
	metrics *Metrics
}

// Instrument wraps f so every call is recorded in metrics under name. A nil
// metrics returns f unchanged.
func Instrument[T any](name string, f Function[T], metrics *Metrics) Function[T] {
	if metrics == nil {
		return f
	}
	return &instrumented[T]{name: name, f: f, metrics: metrics}
}

func (i *instrumented[T]) Reset(m solver.Model) error {
	err := i.f.Reset(m)
	if err != nil {
		i.metrics.fail(i.name, err)
	}
	return err
}

func (i *instrumented[T]) Extract(m solver.Model, done bool) (T, error) {
	start := time.Now()
	obs, err := i.f.Extract(m, done)
	i.metrics.duration.WithLabelValues(i.name).Observe(time.Since(start).Seconds())
	if err != nil {
		i.metrics.fail(i.name, err)
	}
	return obs, err
}
