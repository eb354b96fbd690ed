package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"dataco-dashboard/internal/errors"
	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/present"
	"dataco-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// selection resolves the request's filter signals against the defaults.
// Errors are written as JSON before any event is sent.
func (h *SSEHandlers) selection(w http.ResponseWriter, r *http.Request) (models.Selection, bool) {
	requestID := observability.GetRequestID(r.Context())

	var sig dashboardSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid signals"), requestID)
		return models.Selection{}, false
	}

	defaults, err := h.analytics.Defaults(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, appError(err), requestID)
		return models.Selection{}, false
	}

	sel, err := selectionFromSignals(sig, defaults)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return models.Selection{}, false
	}
	return sel, true
}

// HandleRefreshAll recomputes every view and patches the tables and chart
// signals of the page.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	logger := observability.LoggerFrom(r.Context(), h.logger)

	report, err := h.analytics.Report(r.Context(), sel)
	if err != nil {
		errors.WriteError(w, h.logger, appError(err), observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	for _, v := range report.Views {
		html, err := renderViewTable(v)
		if err != nil {
			logger.Error("render view table", "view", v.ID, "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			logger.Warn("patch view table", "view", v.ID, "error", err)
			return
		}
	}

	signals, err := json.Marshal(map[string]any{
		"charts": chartSignals(report.Views),
		"report": map[string]any{
			"filteredRows": report.FilteredRows,
			"generatedAt":  report.GeneratedAt.Format(time.RFC3339),
			"startDate":    sel.Range.Start.Format(present.DateLayout),
			"endDate":      sel.Range.End.Format(present.DateLayout),
		},
	})
	if err != nil {
		logger.Error("marshal report signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Warn("patch report signals", "error", err)
	}
}

// HandleView recomputes one view.
func (h *SSEHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("view")
	if _, ok := services.LookupView(id); !ok {
		errors.WriteError(w, h.logger, errors.NotFound("unknown view").WithDetails(id), observability.GetRequestID(r.Context()))
		return
	}

	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	logger := observability.LoggerFrom(r.Context(), h.logger)

	summary, err := h.analytics.View(r.Context(), id, sel)
	if err != nil {
		errors.WriteError(w, h.logger, appError(err), observability.GetRequestID(r.Context()))
		return
	}

	html, err := renderViewTable(summary)
	if err != nil {
		logger.Error("render view table", "view", id, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(html); err != nil {
		logger.Warn("patch view table", "view", id, "error", err)
		return
	}

	signals, err := json.Marshal(map[string]any{
		"charts": chartSignals([]models.Summary{summary}),
	})
	if err != nil {
		logger.Error("marshal view signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Warn("patch view signals", "view", id, "error", err)
	}
}
