package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/services"
)

type stubSource struct {
	all         []models.Order
	complete    []models.Order
	err         error
	invalidated atomic.Int32
}

func (s *stubSource) LoadAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.all, s.err
}

func (s *stubSource) LoadCompleteOrders(ctx context.Context) ([]models.Order, error) {
	return s.complete, s.err
}

func (s *stubSource) Invalidate() {
	s.invalidated.Add(1)
}

func testOrder(id, market string, shipped time.Time, delay int, profit float64) models.Order {
	return models.Order{
		OrderID:      id,
		OrderItemID:  id,
		OrderDate:    shipped.AddDate(0, 0, -2),
		ShippingDate: shipped,
		Late:         delay > 0,
		DelayDays:    delay,
		Market:       market,
		Region:       "East",
		ShippingMode: "Standard Class",
		Profit:       sql.NullFloat64{Float64: profit, Valid: true},
		PaymentType:  "DEBIT",
		Status:       models.StatusComplete,
		Segment:      "Consumer",
		Category:     "Cleats",
		ProductName:  "Shoe",
	}
}

func newTestSource() *stubSource {
	complete := []models.Order{
		testOrder("1", "US", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 3, -50),
		testOrder("2", "US", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 0, -20),
		testOrder("3", "EU", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), 5, 30),
	}
	pending := testOrder("4", "EU", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 0, 5)
	pending.Status = "PENDING"
	return &stubSource{
		all:      append(append([]models.Order{}, complete...), pending),
		complete: complete,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestAnalytics(src services.OrderSource) *services.Analytics {
	return services.NewAnalytics(src, services.DefaultOptions(), testLogger(), nil)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics(newTestSource())
	handlers := NewAPIHandlers(analytics, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleFilters(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(newTestSource()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	w := httptest.NewRecorder()
	handlers.HandleFilters(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	env := decodeEnvelope(t, w)
	var sel models.Selection
	if err := json.Unmarshal(env.Data, &sel); err != nil {
		t.Fatalf("failed to decode selection: %v", err)
	}
	if len(sel.Markets) != 2 || sel.Markets[0] != "EU" || sel.Markets[1] != "US" {
		t.Errorf("unexpected markets %v", sel.Markets)
	}
	if got := sel.Range.End.Format("2006-01-02"); got != "2024-02-10" {
		t.Errorf("expected range end 2024-02-10, got %s", got)
	}
}

func TestAPIHandlers_HandleReport(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantFiltered int
		wantCode     string
	}{
		{"defaults", "", http.StatusOK, 3, ""},
		{"market and month", "?markets=US&start=2024-01-01&end=2024-01-31", http.StatusOK, 1, ""},
		{"comma separated markets", "?markets=US,EU&start=2024-01-01&end=2024-01-31", http.StatusOK, 2, ""},
		{"repeated markets", "?markets=US&markets=EU", http.StatusOK, 3, ""},
		{"empty market set", "?markets=", http.StatusOK, 0, ""},
		{"inverted range", "?start=2024-02-01&end=2024-01-01", http.StatusOK, 0, ""},
		{"malformed start", "?start=01/02/2024", http.StatusBadRequest, 0, "BAD_REQUEST"},
		{"malformed end", "?end=yesterday", http.StatusBadRequest, 0, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewAPIHandlers(createTestAnalytics(newTestSource()), testLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/report"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.HandleReport(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			if tt.wantCode != "" {
				if env.Success || env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("expected error code %s, got %+v", tt.wantCode, env.Error)
				}
				return
			}

			var report models.Report
			if err := json.Unmarshal(env.Data, &report); err != nil {
				t.Fatalf("failed to decode report: %v", err)
			}
			if report.FilteredRows != tt.wantFiltered {
				t.Errorf("expected %d filtered rows, got %d", tt.wantFiltered, report.FilteredRows)
			}
			if len(report.Views) != len(services.Views()) {
				t.Errorf("expected %d views, got %d", len(services.Views()), len(report.Views))
			}
			split, _ := report.View("late-vs-on-time")
			if split.NoData != (tt.wantFiltered == 0) {
				t.Errorf("late-vs-on-time no_data = %v with %d rows", split.NoData, tt.wantFiltered)
			}
		})
	}
}

func TestAPIHandlers_HandleView(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(newTestSource()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/views/loss-by-market?markets=US", nil)
	req.SetPathValue("view", "loss-by-market")
	w := httptest.NewRecorder()
	handlers.HandleView(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var summary models.Summary
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if len(summary.Rows) != 1 || summary.Rows[0][0] != "US" || summary.Rows[0][1] != 70.0 {
		t.Errorf("unexpected rows %v", summary.Rows)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/views/nope", nil)
	req.SetPathValue("view", "nope")
	w = httptest.NewRecorder()
	handlers.HandleView(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d for unknown view, got %d", http.StatusNotFound, w.Code)
	}
}

func TestAPIHandlers_WarehouseFailure(t *testing.T) {
	src := newTestSource()
	src.err = errors.New("connection refused")
	handlers := NewAPIHandlers(createTestAnalytics(src), testLogger())

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"filters", handlers.HandleFilters},
		{"report", handlers.HandleReport},
		{"stats", handlers.HandleStats},
	}
	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ep.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
			}
			if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != "SERVICE_UNAVAILABLE" {
				t.Errorf("unexpected error body %+v", env.Error)
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(newTestSource()), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("health should not be cached, got %q", cc)
	}

	var health map[string]string
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected status=healthy, got %v", health["status"])
	}
	if _, err := time.Parse(time.RFC3339, health["timestamp"]); err != nil {
		t.Errorf("timestamp should be RFC3339: %v", err)
	}
}

func TestAPIHandlers_StatsAndInvalidate(t *testing.T) {
	src := newTestSource()
	handlers := NewAPIHandlers(createTestAnalytics(src), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var stats map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats["all_orders"] != 4.0 || stats["complete_orders"] != 3.0 {
		t.Errorf("unexpected stats %v", stats)
	}

	w = httptest.NewRecorder()
	handlers.HandleInvalidate(w, httptest.NewRequest(http.MethodPost, "/admin/cache/invalidate", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if src.invalidated.Load() != 1 {
		t.Error("invalidate should reach the order source")
	}
}
