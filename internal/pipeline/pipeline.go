// Package pipeline drives a scrape end to end: fetch raw records from a
// connector, normalize them, resolve identities, and upsert under the
// priority rules, with every run recorded in the scrape ledger.
package pipeline

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/normalize"
	"github.com/fairway-media/golftracker/internal/reconcile"
	"github.com/fairway-media/golftracker/internal/resolve"
	"github.com/fairway-media/golftracker/internal/scrapelog"
	"github.com/fairway-media/golftracker/internal/source"
	"github.com/fairway-media/golftracker/internal/store"
)

// Pipeline wires connectors, normalizers, the reconcile engine and the
// ledger together.
type Pipeline struct {
	sources *source.Registry
	norms   *normalize.Registry
	store   store.Store
	engine  *reconcile.Engine
	ledger  *scrapelog.Ledger
}

func New(sources *source.Registry, norms *normalize.Registry, s store.Store, engine *reconcile.Engine) *Pipeline {
	return &Pipeline{
		sources: sources,
		norms:   norms,
		store:   s,
		engine:  engine,
		ledger:  scrapelog.New(s),
	}
}

// RunSpec names one scrape: which league, which kind of data, and
// optionally which source (defaulting to the league's authoritative one).
type RunSpec struct {
	League string
	Source string
	Kind   model.RecordKind
	Year   int
	// TournamentNativeID scopes a result scrape to one event, in the
	// fetching source's ID space.
	TournamentNativeID string
	Limit              int
}

var scrapeTypes = map[model.RecordKind]model.ScrapeType{
	model.KindPlayer:     model.ScrapeRoster,
	model.KindTournament: model.ScrapeTournaments,
	model.KindResult:     model.ScrapeResults,
}

// Run executes one scrape and settles its ledger row. Record-level
// problems (malformed payloads, ambiguous identities, conflicting
// results) are sampled into the summary and skipped; only setup failures
// return an error.
func (p *Pipeline) Run(ctx context.Context, spec RunSpec) (*model.RunSummary, error) {
	lgDef, err := league.Get(spec.League)
	if err != nil {
		return nil, err
	}
	conn, err := p.connectorFor(lgDef, spec.Source)
	if err != nil {
		return nil, err
	}
	norm, err := p.norms.For(conn.Name())
	if err != nil {
		return nil, err
	}
	scrapeType, ok := scrapeTypes[spec.Kind]
	if !ok {
		return nil, eris.Errorf("pipeline: unknown record kind %q", spec.Kind)
	}

	lg, err := p.store.EnsureLeague(ctx, lgDef.Code, lgDef.Name)
	if err != nil {
		return nil, err
	}

	run, err := p.ledger.Begin(ctx, conn.Name(), scrapeType, lgDef.Code)
	if err != nil {
		return nil, err
	}

	summary, runErr := p.execute(ctx, lgDef, lg, conn, norm, spec)
	// settle the ledger even when the scrape context is already dead
	settleCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		if ferr := p.ledger.Fail(settleCtx, run, runErr); ferr != nil {
			zap.L().Error("failed to settle run", zap.String("run_id", run.ID), zap.Error(ferr))
		}
		return nil, runErr
	}
	if err := p.ledger.Finish(settleCtx, run, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (p *Pipeline) connectorFor(lgDef league.League, name string) (source.Connector, error) {
	if name == "" {
		return p.sources.Authoritative(lgDef)
	}
	conn, err := p.sources.Get(name)
	if err != nil {
		return nil, err
	}
	if !conn.Supports(lgDef) {
		return nil, eris.Errorf("pipeline: source %s does not cover league %s", name, lgDef.Code)
	}
	return conn, nil
}

func (p *Pipeline) execute(ctx context.Context, lgDef league.League, lg *model.League, conn source.Connector, norm normalize.Normalizer, spec RunSpec) (*model.RunSummary, error) {
	raws, err := conn.Fetch(ctx, source.Query{
		League:             lgDef,
		Kind:               spec.Kind,
		Year:               spec.Year,
		TournamentNativeID: spec.TournamentNativeID,
		Limit:              spec.Limit,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: fetch %s from %s", spec.Kind, conn.Name())
	}

	// result scrapes hang off one tournament, which must already exist
	var tournamentID int64
	if spec.Kind == model.KindResult {
		t, err := p.store.GetTournamentBySource(ctx, conn.Name(), spec.TournamentNativeID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, eris.Errorf("pipeline: tournament %s/%s not known, scrape the schedule first",
				conn.Name(), spec.TournamentNativeID)
		}
		tournamentID = t.ID
	}

	summary := &model.RunSummary{}
	for i := range raws {
		if ctx.Err() != nil {
			summary.AddError("run canceled: " + ctx.Err().Error())
			break
		}
		summary.Processed++

		rec, err := norm.Normalize(raws[i])
		if err != nil {
			p.sampleError(summary, conn.Name(), err)
			continue
		}

		var outcome reconcile.Outcome
		switch spec.Kind {
		case model.KindPlayer:
			_, outcome, err = p.engine.UpsertPlayer(ctx, lg, rec)
		case model.KindTournament:
			_, outcome, err = p.engine.UpsertTournament(ctx, lg, rec)
		case model.KindResult:
			outcome, err = p.engine.UpsertResult(ctx, lg, lgDef.AuthoritativeSource, tournamentID, rec)
		}
		if err != nil {
			if ctx.Err() != nil {
				summary.AddError("run canceled: " + ctx.Err().Error())
				break
			}
			p.sampleError(summary, conn.Name(), err)
			continue
		}
		summary.Succeeded++
		if outcome.Created {
			summary.Created++
		}
		if outcome.Updated {
			summary.Updated++
		}
	}
	return summary, nil
}

// sampleError records recoverable record-level failures and logs the rest.
func (p *Pipeline) sampleError(summary *model.RunSummary, src string, err error) {
	switch {
	case errors.Is(err, normalize.ErrMalformedRecord),
		errors.Is(err, resolve.ErrAmbiguousIdentity),
		errors.Is(err, reconcile.ErrConflictingResult):
		summary.AddError(err.Error())
	default:
		zap.L().Warn("record upsert failed", zap.String("source", src), zap.Error(err))
		summary.AddError(err.Error())
	}
}

// Backfill scrapes the schedule for a year and then every completed
// tournament's results from the league's authoritative source. It is the
// long form of Run used by the season command.
func (p *Pipeline) Backfill(ctx context.Context, leagueCode string, year int) (*model.RunSummary, error) {
	schedSummary, err := p.Run(ctx, RunSpec{League: leagueCode, Kind: model.KindTournament, Year: year})
	if err != nil {
		return nil, err
	}

	lgDef, err := league.Get(leagueCode)
	if err != nil {
		return nil, err
	}
	tournaments, err := p.store.ListTournaments(ctx, store.TournamentFilter{League: lgDef.Code, Year: year})
	if err != nil {
		return nil, err
	}

	total := &model.RunSummary{
		Processed: schedSummary.Processed,
		Succeeded: schedSummary.Succeeded,
		Created:   schedSummary.Created,
		Updated:   schedSummary.Updated,
		Errors:    schedSummary.Errors,
	}
	for i := range tournaments {
		if ctx.Err() != nil {
			break
		}
		t := &tournaments[i]
		if t.Status != model.TournamentCompleted {
			continue
		}
		nativeID, err := p.store.GetTournamentBinding(ctx, t.ID, lgDef.AuthoritativeSource)
		if err != nil || nativeID == "" {
			continue
		}
		s, err := p.Run(ctx, RunSpec{
			League:             leagueCode,
			Kind:               model.KindResult,
			TournamentNativeID: nativeID,
		})
		if err != nil {
			total.AddError(err.Error())
			continue
		}
		total.Processed += s.Processed
		total.Succeeded += s.Succeeded
		total.Created += s.Created
		total.Updated += s.Updated
		total.Errors = append(total.Errors, s.Errors...)
	}
	total.Finalize()
	return total, nil
}
