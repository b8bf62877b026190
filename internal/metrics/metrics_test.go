package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordConversion(t *testing.T) {
	before := testutil.ToFloat64(RecordsExtracted.WithLabelValues("test_backend"))
	beforeOK := testutil.ToFloat64(ConversionsTotal.WithLabelValues("test_backend", StatusOK))

	RecordConversion("test_backend", StatusOK, 12, 1, 50*time.Millisecond)

	assert.Equal(t, before+12, testutil.ToFloat64(RecordsExtracted.WithLabelValues("test_backend")))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ConversionsTotal.WithLabelValues("test_backend", StatusOK)))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/conversions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/conversions/{id}", "404"))
	req := httptest.NewRequest(http.MethodGet, "/api/conversions/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/conversions/{id}", "404")))
}

func TestHandler(t *testing.T) {
	ConversionsActive.WithLabelValues("bae").Set(0)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "regmap_conversions_active"))
}
