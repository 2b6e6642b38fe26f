package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/enrich"
	"github.com/fairway-media/golftracker/internal/fetcher"
	"github.com/fairway-media/golftracker/internal/normalize"
	"github.com/fairway-media/golftracker/internal/pipeline"
	"github.com/fairway-media/golftracker/internal/reconcile"
	"github.com/fairway-media/golftracker/internal/resilience"
	"github.com/fairway-media/golftracker/internal/source"
	"github.com/fairway-media/golftracker/internal/store"
	anthropicpkg "github.com/fairway-media/golftracker/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "golftracker.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		return store.NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.Scrape.Timeout(),
		MinDelay:  cfg.Scrape.Delay(),
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.Scrape.MaxRetries + 1,
			InitialBackoff: cfg.Scrape.BackoffBase(),
		},
	})
}

func initSources(f fetcher.Fetcher) *source.Registry {
	return source.NewRegistry(
		source.NewPGATour(f, cfg.PGATour.Endpoint, cfg.PGATour.APIKey),
		source.NewESPN(f, cfg.ESPN.BaseURL),
		source.NewLIV(),
	)
}

func initEngine(st store.Store) *reconcile.Engine {
	return reconcile.NewEngine(st, reconcile.DefaultRanks().Merge(cfg.Priority.Ranks))
}

// initPipeline builds the scrape pipeline. Callers own the store and
// should defer st.Close().
func initPipeline(ctx context.Context) (*pipeline.Pipeline, store.Store, error) {
	if err := cfg.Validate("scrape"); err != nil {
		return nil, nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	p := pipeline.New(initSources(initFetcher()), normalize.Default(), st, initEngine(st))
	return p, st, nil
}

func initAnthropic() anthropicpkg.Client {
	return anthropicpkg.NewClient(cfg.Anthropic.Key)
}

// initCascade builds the enrichment cascade in trust order: Wikipedia,
// then web search, then the Claude fallback.
func initCascade(ctx context.Context) (*enrich.Cascade, store.Store, error) {
	if err := cfg.Validate("enrich"); err != nil {
		return nil, nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	f := initFetcher()
	cascade := enrich.NewCascade(st, initEngine(st),
		enrich.NewWikipedia(f, cfg.Wikipedia.BaseURL),
		enrich.NewWebSearch(f, cfg.WebSearch.BaseURL),
		enrich.NewAI(initAnthropic(), cfg.Anthropic.Model),
	)
	return cascade, st, nil
}
