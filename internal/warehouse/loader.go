// Package warehouse materializes the cleaned orders tables from the data
// warehouse and memoizes them for the lifetime of the process.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"dataco-dashboard/internal/cache"
	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/observability"
)

// Querier is the read-only slice of *sql.DB the loader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Options struct {
	Table        string
	QueryTimeout time.Duration
	CacheTTL     time.Duration
	CacheSize    int
}

type Loader struct {
	db       Querier
	all      Query
	complete Query
	timeout  time.Duration
	cache    *cache.QueryCache[[]models.Order]
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewLoader(db Querier, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Loader, error) {
	if err := validTable(opts.Table); err != nil {
		return nil, err
	}
	if opts.CacheSize < 2 {
		opts.CacheSize = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		db:       db,
		all:      AllOrdersQuery(opts.Table),
		complete: CompleteOrdersQuery(opts.Table),
		timeout:  opts.QueryTimeout,
		cache:    cache.NewQueryCache[[]models.Order](opts.CacheSize, opts.CacheTTL),
		logger:   logger.With("component", "warehouse"),
		metrics:  metrics,
	}, nil
}

// LoadAllOrders returns every order line in the table.
func (l *Loader) LoadAllOrders(ctx context.Context) ([]models.Order, error) {
	return l.load(ctx, l.all)
}

// LoadCompleteOrders returns only order lines with status COMPLETE.
func (l *Loader) LoadCompleteOrders(ctx context.Context) ([]models.Order, error) {
	return l.load(ctx, l.complete)
}

// Invalidate clears memoized results so the next load queries the
// warehouse again.
func (l *Loader) Invalidate() {
	l.cache.Purge()
	l.logger.Info("warehouse cache invalidated")
}

func (l *Loader) Queries() []Query {
	return []Query{l.all, l.complete}
}

func (l *Loader) CachedQueries() int {
	return l.cache.Len()
}

func (l *Loader) load(ctx context.Context, q Query) ([]models.Order, error) {
	orders, hit, err := l.cache.GetOrLoad(ctx, q.SQL, func(ctx context.Context) ([]models.Order, error) {
		return l.query(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	l.metrics.ObserveCache(q.Name, hit)
	return orders, nil
}

func (l *Loader) query(ctx context.Context, q Query) ([]models.Order, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	l.logger.Info("querying warehouse", "query", q.Name)

	orders, err := l.run(ctx, q)
	duration := time.Since(start)
	l.metrics.ObserveQuery(q.Name, duration, len(orders), err)

	if err != nil {
		l.logger.Error("warehouse query failed", "query", q.Name, "error", err, "duration", duration)
		return nil, err
	}

	l.logger.Info("warehouse query complete",
		"query", q.Name,
		"rows", len(orders),
		"duration", duration,
	)
	return orders, nil
}

func (l *Loader) run(ctx context.Context, q Query) ([]models.Order, error) {
	rows, err := l.db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", q.Name, err)
	}
	return orders, nil
}
