package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(types.ModeTariff, OutcomeSuccess, 2*time.Second, &report.Result{
		Summary: report.Summary{TotalRows: 6, Matches: 3, Mismatches: 2, Missing: 1},
		Stats:   report.IndexStats{ReferenceDuplicates: 4},
	})
	m.ObserveRun(types.ModeTariff, OutcomeFailed, time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("tariff", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("tariff", OutcomeFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsTotal.WithLabelValues("tariff", "MATCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsTotal.WithLabelValues("tariff", "MISSING_COUNTERPART")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DuplicateKeys.WithLabelValues("reference")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.HistoryEntries.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "recon_history_entries_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIndependentRegistries(t *testing.T) {
	// Two sets must not collide on registration.
	a, b := New(), New()
	a.HistoryErrors.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.HistoryErrors))
}
