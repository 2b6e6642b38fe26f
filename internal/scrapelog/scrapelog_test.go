package scrapelog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testLedger(t *testing.T) (*Ledger, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return New(s), s
}

func TestBeginOpensStartedRun(t *testing.T) {
	l, s := testLedger(t)
	ctx := context.Background()

	run, err := l.Begin(ctx, "pgatour", model.ScrapeRoster, "PGA")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStarted, got.Status)
	assert.Equal(t, "PGA", got.League)
	assert.Nil(t, got.CompletedAt)
}

func TestFinishSuccess(t *testing.T) {
	l, s := testLedger(t)
	ctx := context.Background()

	run, err := l.Begin(ctx, "pgatour", model.ScrapeRoster, "PGA")
	require.NoError(t, err)

	summary := &model.RunSummary{Processed: 200, Created: 150, Updated: 50}
	require.NoError(t, l.Finish(ctx, run, summary))

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunSuccess, got.Status)
	assert.Equal(t, 200, got.RecordsProcessed)
	require.NotNil(t, got.CompletedAt)
	assert.Positive(t, got.Duration())
}

func TestFinishPartialCarriesErrorSample(t *testing.T) {
	l, s := testLedger(t)
	ctx := context.Background()

	run, err := l.Begin(ctx, "espn", model.ScrapeResults, "LPGA")
	require.NoError(t, err)

	summary := &model.RunSummary{Processed: 10, Succeeded: 8, Created: 8}
	summary.AddError("player 4: ambiguous identity")
	summary.AddError("player 9: malformed record")
	require.NoError(t, l.Finish(ctx, run, summary))

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunPartial, got.Status)
	assert.Contains(t, got.ErrorMessage, "ambiguous identity")
	assert.Contains(t, got.ErrorMessage, "malformed record")
}

func TestFinishFailedWhenNothingLanded(t *testing.T) {
	l, s := testLedger(t)
	ctx := context.Background()

	run, err := l.Begin(ctx, "espn", model.ScrapeRoster, "LPGA")
	require.NoError(t, err)

	summary := &model.RunSummary{Processed: 5}
	summary.AddError("upstream unavailable")
	require.NoError(t, l.Finish(ctx, run, summary))

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, got.Status)
}

func TestFailSettlesRun(t *testing.T) {
	l, s := testLedger(t)
	ctx := context.Background()

	run, err := l.Begin(ctx, "pgatour", model.ScrapeTournaments, "PGA")
	require.NoError(t, err)
	require.NoError(t, l.Fail(ctx, run, assert.AnError))

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestSettleTwiceKeepsFirstState(t *testing.T) {
	l, s := testLedger(t)
	ctx := context.Background()

	run, err := l.Begin(ctx, "pgatour", model.ScrapeRoster, "PGA")
	require.NoError(t, err)
	require.NoError(t, l.Fail(ctx, run, assert.AnError))

	summary := &model.RunSummary{Processed: 100, Created: 100}
	require.NoError(t, l.Finish(ctx, run, summary))

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, got.Status)
	assert.Zero(t, got.RecordsCreated)
}
