package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Records(t *testing.T) {
	r := New()

	r.RecordDecision("MSFT", "STRONG_OVERWEIGHT", "MODERATE", 0.41, 0.0505)
	r.RecordDecision("NVDA", "STRONG_OVERWEIGHT", "MODERATE", 0.45, 0.0525)
	r.RecordClamp("risk")
	r.RecordDegenerateBasket()
	r.RecordWeight("MSFT", 23.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Decisions.WithLabelValues("STRONG_OVERWEIGHT", "MODERATE")))
	assert.Equal(t, 0.41, testutil.ToFloat64(r.Composite.WithLabelValues("MSFT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Clamps.WithLabelValues("risk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DegenerateBaskets))
	assert.Equal(t, 23.1, testutil.ToFloat64(r.BlendedWeight.WithLabelValues("MSFT")))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordDecision("MSFT", "NEUTRAL", "MODERATE", 0, 0)
		r.RecordClamp("macro")
		r.RecordProviderError("snapshot")
		r.RecordDegenerateBasket()
		r.RecordWeight("MSFT", 10)
		r.StartJob("daily").Stop("ok")
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.RecordClamp("technical")
	r.StartJob("daily").Stop("ok")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `quantumflow_factor_clamps_total{factor="technical"} 1`), body)
	assert.Contains(t, body, "quantumflow_run_duration_seconds_count")
}
