package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/observability"
	"golang.org/x/sync/errgroup"
)

const maxWorkers = 4

var ErrUnknownView = errors.New("unknown view")

// OrderSource provides the two warehouse tables.
type OrderSource interface {
	LoadAllOrders(ctx context.Context) ([]models.Order, error)
	LoadCompleteOrders(ctx context.Context) ([]models.Order, error)
	Invalidate()
}

type Analytics struct {
	source  OrderSource
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	loadedAt time.Time
	reports  int64
}

func NewAnalytics(source OrderSource, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.StatusOrder) == 0 {
		opts.StatusOrder = models.StatusOrder
	}
	return &Analytics{
		source:  source,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

func (a *Analytics) Options() Options {
	return a.opts
}

// Warm loads both tables so the first report does not pay for the queries.
func (a *Analytics) Warm(ctx context.Context) error {
	start := time.Now()
	in, err := a.inputs(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.loadedAt = time.Now()
	a.mu.Unlock()

	a.logger.Info("warehouse tables loaded",
		"all_orders", len(in.All),
		"complete_orders", len(in.Complete),
		"duration", time.Since(start))
	return nil
}

// inputs loads both tables concurrently. Filtered is left empty.
func (a *Analytics) inputs(ctx context.Context) (Inputs, error) {
	var in Inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := a.source.LoadAllOrders(gctx)
		if err != nil {
			return err
		}
		in.All = orders
		return nil
	})
	g.Go(func() error {
		orders, err := a.source.LoadCompleteOrders(gctx)
		if err != nil {
			return err
		}
		in.Complete = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return Inputs{}, fmt.Errorf("load orders: %w", err)
	}
	return in, nil
}

// Defaults returns every market and the full shipping-date span of the
// completed orders.
func (a *Analytics) Defaults(ctx context.Context) (models.Selection, error) {
	complete, err := a.source.LoadCompleteOrders(ctx)
	if err != nil {
		return models.Selection{}, fmt.Errorf("load orders: %w", err)
	}
	return DefaultSelection(complete), nil
}

// Report computes every view for sel.
func (a *Analytics) Report(ctx context.Context, sel models.Selection) (*models.Report, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.report")
	logger := observability.LoggerFrom(ctx, a.logger)
	defer span.End(logger)
	start := time.Now()

	in, err := a.inputs(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	in.Filtered = ApplyFilters(in.Complete, sel.Markets, sel.Range)
	span.SetTag("filtered_rows", fmt.Sprint(len(in.Filtered)))

	all := Views()
	out := make([]models.Summary, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, v := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = v.Compute(in, a.opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("compute report: %w", err)
	}

	a.mu.Lock()
	a.reports++
	a.mu.Unlock()
	a.metrics.ObserveReport(time.Since(start))

	return &models.Report{
		Selection:    sel,
		GeneratedAt:  time.Now().UTC(),
		FilteredRows: len(in.Filtered),
		Views:        out,
	}, nil
}

// View computes a single view by id.
func (a *Analytics) View(ctx context.Context, id string, sel models.Selection) (models.Summary, error) {
	v, ok := LookupView(id)
	if !ok {
		return models.Summary{}, fmt.Errorf("%w: %s", ErrUnknownView, id)
	}

	var in Inputs
	switch v.Scope {
	case ScopeAllOrders:
		orders, err := a.source.LoadAllOrders(ctx)
		if err != nil {
			return models.Summary{}, fmt.Errorf("load orders: %w", err)
		}
		in.All = orders
	default:
		orders, err := a.source.LoadCompleteOrders(ctx)
		if err != nil {
			return models.Summary{}, fmt.Errorf("load orders: %w", err)
		}
		in.Complete = orders
		if v.Scope == ScopeFiltered {
			in.Filtered = ApplyFilters(orders, sel.Markets, sel.Range)
		}
	}
	return v.Compute(in, a.opts), nil
}

// Invalidate clears the cached warehouse results.
func (a *Analytics) Invalidate() {
	a.source.Invalidate()
	a.mu.Lock()
	a.loadedAt = time.Time{}
	a.mu.Unlock()
	a.logger.Info("warehouse cache invalidated")
}

func (a *Analytics) Stats(ctx context.Context) (map[string]any, error) {
	in, err := a.inputs(ctx)
	if err != nil {
		return nil, err
	}
	sel := DefaultSelection(in.Complete)

	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"all_orders":      len(in.All),
		"complete_orders": len(in.Complete),
		"markets":         len(sel.Markets),
		"first_shipping":  sel.Range.Start,
		"last_shipping":   sel.Range.End,
		"views":           len(views),
		"reports":         a.reports,
		"loaded_at":       a.loadedAt,
	}, nil
}
