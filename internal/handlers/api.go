package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"dataco-dashboard/internal/errors"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/services"
)

const version = "1.0.0"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, appError(err), observability.GetRequestID(r.Context()))
}

var noStore = map[string]string{"Cache-Control": "no-store"}

// HandleFilters returns the default selection for the filter controls.
func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	sel, err := h.analytics.Defaults(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, sel, noStore)
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	defaults, err := h.analytics.Defaults(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query(), defaults)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	report, err := h.analytics.Report(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, report, noStore)
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("view")
	if _, ok := services.LookupView(id); !ok {
		h.fail(w, r, errors.NotFound("unknown view").WithDetails(id))
		return
	}

	defaults, err := h.analytics.Defaults(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query(), defaults)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.analytics.View(r.Context(), id, sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, summary, noStore)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccessWithHeaders(w, healthData, noStore)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, stats)
}

// HandleInvalidate drops cached warehouse results so the next request
// re-queries.
func (h *APIHandlers) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.analytics.Invalidate()
	errors.WriteSuccess(w, map[string]string{"status": "invalidated"})
}
