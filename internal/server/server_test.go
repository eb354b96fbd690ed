package server

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/services"
)

type memorySource struct {
	orders []models.Order
}

func (m memorySource) LoadAllOrders(context.Context) ([]models.Order, error) {
	return m.orders, nil
}

func (m memorySource) LoadCompleteOrders(context.Context) ([]models.Order, error) {
	return m.orders, nil
}

func (memorySource) Invalidate() {}

func newTestServer(t *testing.T) (*Server, *observability.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := memorySource{orders: []models.Order{{
		OrderID:      "1",
		ShippingDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		DelayDays:    2,
		Late:         true,
		Market:       "USCA",
		Region:       "East",
		Profit:       sql.NullFloat64{Float64: 12, Valid: true},
		Status:       models.StatusComplete,
		Segment:      "Consumer",
		Category:     "Cleats",
		ProductName:  "Shoe",
	}}}
	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics(src, services.DefaultOptions(), logger, metrics)
	dashboard := func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "dashboard")
	}
	return NewServer(analytics, logger, metrics, &TemplateHandlers{Dashboard: dashboard}), metrics
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/admin/stats", http.StatusOK},
		{http.MethodPost, "/admin/cache/invalidate", http.StatusOK},
		{http.MethodGet, "/admin/cache/invalidate", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/filters", http.StatusOK},
		{http.MethodGet, "/api/report?markets=USCA", http.StatusOK},
		{http.MethodGet, "/api/report?start=bad", http.StatusBadRequest},
		{http.MethodGet, "/api/views/late-vs-on-time", http.StatusOK},
		{http.MethodGet, "/api/views/unknown", http.StatusNotFound},
		{http.MethodGet, "/sse/refresh-all", http.StatusOK},
		{http.MethodGet, "/sse/views/days-late", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestServer_RecordsRouteMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	for range 2 {
		srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/views/days-late", nil))
	}
	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	expected := []string{
		`dataco_dashboard_http_requests_total{method="GET",route="GET /api/views/{view}",status="200"} 2`,
		`dataco_dashboard_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
		"go_goroutines",
	}
	for _, s := range expected {
		if !strings.Contains(body, s) {
			t.Errorf("metrics should contain %q", s)
		}
	}
}

func TestStatusRecorder_KeepsFirstStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusInternalServerError)
	rec.Flush()

	if rec.status != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.status, http.StatusTeapot)
	}
	if !w.Flushed {
		t.Error("Flush should reach the underlying writer")
	}
}
