// Package scrapelog records every scrape attempt in the run ledger. A run
// opens in the started state before any fetch and always settles to a
// terminal state, so an audit of what ran and what it touched survives
// crashes and cancellations.
package scrapelog

import (
	"context"

	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/store"
)

// Ledger wraps the store's run table with begin/settle helpers.
type Ledger struct {
	store store.Store
}

func New(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// Begin opens a run in the started state.
func (l *Ledger) Begin(ctx context.Context, source string, scrapeType model.ScrapeType, league string) (*model.ScrapeRun, error) {
	run := &model.ScrapeRun{
		Source:     source,
		ScrapeType: scrapeType,
		League:     league,
	}
	if err := l.store.CreateScrapeRun(ctx, run); err != nil {
		return nil, err
	}
	zap.L().Info("scrape run started",
		zap.String("run_id", run.ID),
		zap.String("source", source),
		zap.String("type", string(scrapeType)),
		zap.String("league", league))
	return run, nil
}

// Finish settles a run from its summary. Finalize picks success, partial
// or failed from the counters; settling twice leaves the first terminal
// state in place.
func (l *Ledger) Finish(ctx context.Context, run *model.ScrapeRun, summary *model.RunSummary) error {
	summary.Finalize()
	run.Status = summary.Status
	run.RecordsProcessed = summary.Processed
	run.RecordsCreated = summary.Created
	run.RecordsUpdated = summary.Updated
	run.ErrorMessage = summary.ErrorMessage()

	if err := l.store.CompleteScrapeRun(ctx, run); err != nil {
		return err
	}
	zap.L().Info("scrape run settled",
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("processed", run.RecordsProcessed),
		zap.Int("created", run.RecordsCreated),
		zap.Int("updated", run.RecordsUpdated))
	return nil
}

// Fail settles a run as failed with the given error. Used when the run
// dies before producing a summary.
func (l *Ledger) Fail(ctx context.Context, run *model.ScrapeRun, cause error) error {
	run.Status = model.RunFailed
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	return l.store.CompleteScrapeRun(ctx, run)
}
