package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name         string
		method       string
		path         string
		statusCode   int
		expectedPath string
	}{
		{
			name:         "uses route pattern",
			method:       http.MethodPost,
			path:         "/wallet/deposit",
			statusCode:   http.StatusTeapot,
			expectedPath: "/wallet/deposit",
		},
		{
			name:         "unmatched path is collapsed",
			method:       http.MethodGet,
			path:         "/nope/123",
			statusCode:   http.StatusNotFound,
			expectedPath: "unmatched",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(Metrics(m))
			r.Post("/wallet/deposit", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Fatalf("expected status %d, got %d", tc.statusCode, rr.Code)
			}

			labels := []string{tc.method, tc.expectedPath, strconv.Itoa(tc.statusCode)}
			if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(labels...)); got != 1 {
				t.Fatalf("expected request count 1 for %v, got %v", labels, got)
			}

			if count := testutil.CollectAndCount(m.HTTPDuration); count != 1 {
				t.Fatalf("expected 1 duration series, got %d", count)
			}

			if inFlight := testutil.ToFloat64(m.HTTPInFlight); inFlight != 0 {
				t.Fatalf("expected in-flight gauge to reset to 0, got %v", inFlight)
			}
		})
	}
}
