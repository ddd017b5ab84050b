package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDelete(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDelete(OutcomeUndone)
	m.ObserveDelete(OutcomeUndone)
	m.ObserveDelete(OutcomeRolledBack)
	m.ObserveReload()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Deletes.WithLabelValues(OutcomeUndone)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deletes.WithLabelValues(OutcomeRolledBack)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Deletes.WithLabelValues(OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDelete(OutcomeCommitted)
	m.ObserveReload()
	rt := http.DefaultTransport
	assert.Equal(t, rt, m.InstrumentRoundTripper(rt))
	lines, err := m.Summary()
	assert.NoError(t, err)
	assert.Empty(t, lines)
}

func TestInstrumentRoundTripper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m := New(prometheus.NewRegistry())
	client := &http.Client{Transport: m.InstrumentRoundTripper(http.DefaultTransport)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("404", "get")))

	lines, err := m.Summary()
	require.NoError(t, err)
	assert.Contains(t, lines, `todopro_api_requests_total{code="404",method="get"} 1`)
	assert.Contains(t, lines, `todopro_api_request_duration_seconds{method="get"} count=1`)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	m := New(prometheus.NewRegistry())
	ctx := NewContext(context.Background(), m)
	assert.Same(t, m, FromContext(ctx))
}
