// Command dashctl computes dashboard views from the warehouse and prints
// them to the terminal.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"dataco-dashboard/internal/config"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/services"
	"dataco-dashboard/internal/warehouse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openWarehouse).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// opener connects the analytics engine to a warehouse. The returned
// function releases the connection.
type opener func(ctx context.Context, logOut io.Writer) (*services.Analytics, func() error, error)

func openWarehouse(_ context.Context, logOut io.Writer) (*services.Analytics, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := observability.NewLogger(cfg.Logger, logOut)

	db, err := sql.Open(cfg.Warehouse.Driver, cfg.Warehouse.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open warehouse: %w", err)
	}

	loader, err := warehouse.NewLoader(db, loaderOptions(cfg), logger, nil)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return services.NewAnalytics(loader, services.OptionsFromConfig(cfg.Report), logger, nil), db.Close, nil
}

func loaderOptions(cfg *config.Config) warehouse.Options {
	return warehouse.Options{
		Table:        cfg.Warehouse.Table,
		QueryTimeout: cfg.Warehouse.QueryTimeout,
		CacheTTL:     cfg.Cache.TTL,
		CacheSize:    cfg.Cache.MaxEntries,
	}
}
