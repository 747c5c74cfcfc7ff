package observability

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder observes operation outcomes.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	// Fallback counts a degraded answer served instead of a real one.
	Fallback(ctx context.Context, operation string)
}

// NopRecorder drops observations.
type NopRecorder struct{}

func (NopRecorder) Observe(context.Context, string, bool, time.Duration) {}
func (NopRecorder) Fallback(context.Context, string)                   {}

// PrometheusRecorder exports operation latency and fallback counts.
type PrometheusRecorder struct {
	durations *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

// NewPrometheusRecorder registers its collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chesscorner",
			Name:      "operation_duration_seconds",
			Help:      "Duration of dataset, query and rule operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation", "status"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chesscorner",
			Name:      "fallback_total",
			Help:      "Queries answered with the default puzzle or an empty rule list.",
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.fallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records a duration under the operation/status labels.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// Fallback increments the fallback counter for operation.
func (r *PrometheusRecorder) Fallback(_ context.Context, operation string) {
	r.fallbacks.WithLabelValues(operation).Inc()
}

// WriteText dumps every metric family gathered from g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
