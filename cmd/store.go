package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-verify/internal/catalog"
	"github.com/sells-group/catalog-verify/internal/config"
	"github.com/sells-group/catalog-verify/internal/resilience"
)

// initStore opens the configured catalog. A fixture, when set, replaces the
// database; useFixture is false for commands that write to the catalog.
func initStore(ctx context.Context, c *config.Config, useFixture bool) (catalog.Store, error) {
	if useFixture && c.Catalog.Fixture != "" {
		zap.L().Info("using catalog fixture", zap.String("path", c.Catalog.Fixture))
		return catalog.LoadFixture(c.Catalog.Fixture)
	}

	retry := resilience.FromConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)

	switch c.Store.Driver {
	case "sqlite":
		st, err := catalog.NewSQLite(c.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.SetRetry(retry)
		// The local database is created on first use.
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "postgres":
		return catalog.NewPostgres(ctx, c.Store.DatabaseURL,
			catalog.PoolConfig{MaxConns: c.Store.MaxConns, MinConns: c.Store.MinConns},
			catalog.WithRetry(retry),
			catalog.WithQueryRate(c.Catalog.QueriesPerSecond),
		)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

func loaderConfig(c *config.Config) catalog.LoaderConfig {
	return catalog.LoaderConfig{
		PageSize:    c.Catalog.PageSize,
		FetchChunk:  c.Catalog.FetchChunk,
		Concurrency: c.Catalog.FetchConcurrency,
	}
}
