package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"dataco-dashboard/internal/config"
	"dataco-dashboard/internal/middleware"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/server"
	"dataco-dashboard/internal/services"
	"dataco-dashboard/internal/ui/templates"
	"dataco-dashboard/internal/warehouse"
)

const (
	renderTimeout = 10 * time.Second
	warmTimeout   = 2 * time.Minute
	pageTitle     = "DataCo Delivery & Sales Dashboard"
	pageSubtitle  = "Delivery performance, profitability, order quality and customer segments"
)

var tabOrder = []string{services.TabDelivery, services.TabSales, services.TabQA, services.TabCustomer}

// dashboardTabs groups the registered views by tab.
func dashboardTabs() []templates.Tab {
	byTab := make(map[string][]templates.Panel)
	for _, v := range services.Views() {
		byTab[v.Tab] = append(byTab[v.Tab], templates.Panel{ID: v.ID, Title: v.Title, Chart: v.Chart})
	}
	tabs := make([]templates.Tab, 0, len(tabOrder))
	for _, name := range tabOrder {
		tabs = append(tabs, templates.Tab{Name: name, Panels: byTab[name]})
	}
	return tabs
}

func newDashboardHandler(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	tabs := dashboardTabs()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		defaults, err := analytics.Defaults(ctx)
		if err != nil {
			observability.LoggerFrom(ctx, logger).Error("load dashboard defaults", "error", err)
			http.Error(w, "warehouse unavailable", http.StatusServiceUnavailable)
			return
		}

		data := templates.DashboardData{
			Title:    pageTitle,
			Subtitle: pageSubtitle,
			Markets:  defaults.Markets,
			Defaults: defaults,
			Tabs:     tabs,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := templates.Dashboard(data).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newHandler wires the routes behind the middleware chain.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: newDashboardHandler(analytics, logger),
	}
	srv := server.NewServer(analytics, logger, metrics, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)
	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"warehouse_driver", cfg.Warehouse.Driver,
		"warehouse_table", cfg.Warehouse.Table,
		"addr", cfg.Address(),
	)

	db, err := sql.Open(cfg.Warehouse.Driver, cfg.Warehouse.DSN)
	if err != nil {
		logger.Error("failed to open warehouse", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	loader, err := warehouse.NewLoader(db, warehouse.Options{
		Table:        cfg.Warehouse.Table,
		QueryTimeout: cfg.Warehouse.QueryTimeout,
		CacheTTL:     cfg.Cache.TTL,
		CacheSize:    cfg.Cache.MaxEntries,
	}, logger, metrics)
	if err != nil {
		logger.Error("failed to create warehouse loader", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(loader, services.OptionsFromConfig(cfg.Report), logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	start := time.Now()
	err = analytics.Warm(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to load warehouse tables", "error", err)
		db.Close()
		os.Exit(1)
	}
	logger.Info("warehouse data loaded successfully", "duration", time.Since(start))

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing warehouse connection pool")
		return db.Close()
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
