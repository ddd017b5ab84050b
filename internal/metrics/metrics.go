// Package metrics holds the prometheus collectors for API traffic and
// the delete/undo lifecycle.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "todopro"

// Delete outcomes.
const (
	OutcomeUndone     = "undone"
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// Metrics is the set of collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
	Deletes     *prometheus.CounterVec
	Reloads     prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by status code and method.",
		}, []string{"code", "method"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Resolved deletions by outcome.",
		}, []string{"outcome"}),
		Reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Full reloads triggered to reconcile after a failed bulk clear.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.APIRequests, m.APILatency, m.Deletes, m.Reloads)
	return m
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying m.
func NewContext(ctx context.Context, m *Metrics) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the Metrics stored in ctx, or nil.
func FromContext(ctx context.Context) *Metrics {
	m, _ := ctx.Value(ctxKey{}).(*Metrics)
	return m
}

// InstrumentRoundTripper wraps next with request counting and latency.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.APIRequests,
		promhttp.InstrumentRoundTripperDuration(m.APILatency, next))
}

// ObserveDelete records how a pending deletion resolved.
func (m *Metrics) ObserveDelete(outcome string) {
	if m == nil {
		return
	}
	m.Deletes.WithLabelValues(outcome).Inc()
}

// ObserveReload records a reconciliation reload.
func (m *Metrics) ObserveReload() {
	if m == nil {
		return
	}
	m.Reloads.Inc()
}

// Summary returns one "name{labels} value" line per counter series, sorted.
// Histograms are reported by their sample count.
func (m *Metrics) Summary() ([]string, error) {
	if m == nil || m.gatherer == nil {
		return nil, nil
	}
	families, err := m.gatherer.Gather()
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				lines = append(lines, fmt.Sprintf("%s count=%d", name, metric.GetHistogram().GetSampleCount()))
			}
		}
	}
	sort.Strings(lines)
	return lines, nil
}
