// Package enrich fills biographical gaps on players by cascading through
// lookup sources in trust order. Each source is asked only for the fields
// still missing, and the cascade stops as soon as the checklist is
// complete.
package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/reconcile"
	"github.com/fairway-media/golftracker/internal/scrapelog"
	"github.com/fairway-media/golftracker/internal/store"
)

// Source looks up biographical fields for one player. Implementations
// return only fields they actually found; a source that knows nothing
// returns an empty BioFields and no error.
type Source interface {
	Name() string
	Lookup(ctx context.Context, p *model.Player, missing []string) (model.BioFields, error)
}

// Cascade runs sources in order against players missing bio fields.
type Cascade struct {
	sources []Source
	engine  *reconcile.Engine
	store   store.Store
	ledger  *scrapelog.Ledger
	config  *Config
}

func NewCascade(s store.Store, engine *reconcile.Engine, sources ...Source) *Cascade {
	return &Cascade{sources: sources, engine: engine, store: s, ledger: scrapelog.New(s)}
}

// Configure applies per-field cascade tuning. A nil config leaves every
// field open to every source.
func (c *Cascade) Configure(cfg *Config) {
	c.config = cfg
}

// PlayerReport describes one player's trip through the cascade.
type PlayerReport struct {
	PlayerID int64    `json:"player_id"`
	Name     string   `json:"name"`
	Tried    []string `json:"sources_tried"`
	Filled   []string `json:"fields_filled,omitempty"`
	Missing  []string `json:"fields_missing,omitempty"`
}

// EnrichPlayer walks the cascade for a single player. Source errors are
// logged and skipped, not fatal: a later source may still fill the field.
func (c *Cascade) EnrichPlayer(ctx context.Context, playerID int64) (*PlayerReport, error) {
	p, err := c.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, eris.Errorf("enrich: player %d not found", playerID)
	}

	report := &PlayerReport{PlayerID: p.ID, Name: p.FirstName + " " + p.LastName}
	missing := model.MissingBioFields(p)

	for _, src := range c.sources {
		if len(missing) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		asked := c.config.filterFields(src.Name(), missing)
		if len(asked) == 0 {
			continue
		}
		report.Tried = append(report.Tried, src.Name())

		bio, err := src.Lookup(ctx, p, asked)
		if err != nil {
			zap.L().Warn("enrichment source failed",
				zap.String("source", src.Name()),
				zap.Int64("player_id", p.ID),
				zap.Error(err))
			continue
		}
		if bio.IsEmpty() {
			continue
		}

		if _, err := c.engine.ApplyBioFields(ctx, p.ID, src.Name(), bio); err != nil {
			return report, err
		}
		p, err = c.store.GetPlayer(ctx, p.ID)
		if err != nil {
			return report, err
		}
		before := missing
		missing = model.MissingBioFields(p)
		for _, key := range diffFilled(before, missing) {
			report.Filled = append(report.Filled, key+" ("+src.Name()+")")
		}
	}

	report.Missing = missing

	now := time.Now().UTC()
	p.BioLastUpdated = &now
	if err := c.store.UpdatePlayer(ctx, p); err != nil {
		return report, err
	}
	return report, nil
}

// EnrichMissing enriches up to limit players with unfilled checklist
// fields, stalest first. The whole sweep is recorded in the run ledger
// as one player_bio run: a player whose checklist stays incomplete is
// not an error, but a player the cascade could not process at all is.
func (c *Cascade) EnrichMissing(ctx context.Context, limit int) ([]PlayerReport, error) {
	players, err := c.store.ListPlayersMissingBio(ctx, limit)
	if err != nil {
		return nil, err
	}

	run, err := c.ledger.Begin(ctx, "cascade", model.ScrapePlayerBio, "")
	if err != nil {
		return nil, err
	}
	summary := &model.RunSummary{}

	var reports []PlayerReport
	for i := range players {
		if err := ctx.Err(); err != nil {
			summary.AddError("run canceled: " + err.Error())
			break
		}
		summary.Processed++
		r, err := c.EnrichPlayer(ctx, players[i].ID)
		if err != nil {
			if ctx.Err() != nil {
				summary.AddError("run canceled: " + ctx.Err().Error())
				break
			}
			zap.L().Warn("player enrichment failed",
				zap.Int64("player_id", players[i].ID), zap.Error(err))
			summary.AddError(err.Error())
			continue
		}
		summary.Succeeded++
		if len(r.Filled) > 0 {
			summary.Updated++
		}
		reports = append(reports, *r)
	}

	// settle the ledger even when the sweep context is already dead
	if err := c.ledger.Finish(context.WithoutCancel(ctx), run, summary); err != nil {
		return reports, err
	}
	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, nil
}

func diffFilled(before, after []string) []string {
	still := make(map[string]bool, len(after))
	for _, k := range after {
		still[k] = true
	}
	var filled []string
	for _, k := range before {
		if !still[k] {
			filled = append(filled, k)
		}
	}
	return filled
}
