// Package reconcile merges normalized records into the store under
// source-priority rules, with per-entity serialization so concurrent
// scrapes cannot interleave writes to the same row.
package reconcile

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/normalize"
	"github.com/fairway-media/golftracker/internal/resolve"
	"github.com/fairway-media/golftracker/internal/store"
)

// ErrConflictingResult is returned when a non-authoritative source
// disagrees with already-stored numeric result data. The stored data is
// kept and the record is rejected.
var ErrConflictingResult = errors.New("conflicting result")

// Engine resolves identities and upserts normalized records.
type Engine struct {
	store    store.Store
	resolver *resolve.Resolver
	ranks    Ranks

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(s store.Store, ranks Ranks) *Engine {
	if ranks == nil {
		ranks = DefaultRanks()
	}
	return &Engine{
		store:    s,
		resolver: resolve.New(s),
		ranks:    ranks,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockEntity serializes work on one logical entity. The returned func
// releases the lock.
func (e *Engine) lockEntity(key string) func() {
	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Outcome reports what an upsert did.
type Outcome struct {
	Created bool
	Updated bool
}

// UpsertPlayer resolves the record's player and merges its fields.
func (e *Engine) UpsertPlayer(ctx context.Context, lg *model.League, rec *model.NormalizedRecord) (*model.Player, Outcome, error) {
	if rec.Player == nil {
		return nil, Outcome{}, eris.New("reconcile: record has no player fields")
	}
	unlock := e.lockEntity("player:" + normalize.IdentityKey(rec.Player.FirstName, rec.Player.LastName))
	defer unlock()

	res, err := e.resolver.ResolvePlayer(ctx, rec)
	if err != nil {
		return nil, Outcome{}, err
	}
	p := res.Player

	incoming := e.playerValues(rec)
	prov, err := e.store.GetProvenance(ctx, model.EntityPlayer, p.ID)
	if err != nil {
		return nil, Outcome{}, err
	}
	changed, updates := MergePlayer(p, incoming, prov)
	if changed {
		if err := e.store.UpdatePlayer(ctx, p); err != nil {
			return nil, Outcome{}, err
		}
	}
	for _, u := range updates {
		u.EntityID = p.ID
		if err := e.store.SetProvenance(ctx, u); err != nil {
			return nil, Outcome{}, err
		}
	}
	if lg != nil {
		if err := e.store.LinkPlayerLeague(ctx, p.ID, lg.ID, rec.NativeID); err != nil {
			return nil, Outcome{}, err
		}
	}
	return p, Outcome{Created: res.Created, Updated: changed && !res.Created}, nil
}

// playerValues flattens a record's player data into ranked field values.
func (e *Engine) playerValues(rec *model.NormalizedRecord) map[string]model.FieldValue {
	out := rec.Player.Bio.ToFieldValues(rec.Source)
	if rec.Player.Country != "" {
		if _, ok := out[model.FieldHometownCountry]; !ok {
			out[model.FieldHometownCountry] = model.FieldValue{
				Key: model.FieldHometownCountry, Value: rec.Player.Country, Source: rec.Source,
			}
		}
	}
	if rec.Player.ImageURL != "" {
		out[model.FieldProfileImage] = model.FieldValue{
			Key: model.FieldProfileImage, Value: rec.Player.ImageURL, Source: rec.Source,
		}
	}
	for key, fv := range out {
		fv.Rank = e.ranks.Rank(fv.Source)
		out[key] = fv
	}
	return out
}

// ApplyBioFields merges enrichment output into a player. The enrichment
// cascade calls this directly since its values arrive outside a scrape
// record.
func (e *Engine) ApplyBioFields(ctx context.Context, playerID int64, source string, bio model.BioFields) (bool, error) {
	unlock := e.lockEntity("player-id:" + itoaKey(playerID))
	defer unlock()

	p, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, eris.Errorf("reconcile: player %d not found", playerID)
	}

	incoming := bio.ToFieldValues(source)
	rank := e.ranks.Rank(source)
	for key, fv := range incoming {
		fv.Rank = rank
		incoming[key] = fv
	}
	prov, err := e.store.GetProvenance(ctx, model.EntityPlayer, p.ID)
	if err != nil {
		return false, err
	}
	changed, updates := MergePlayer(p, incoming, prov)
	if changed {
		if err := e.store.UpdatePlayer(ctx, p); err != nil {
			return false, err
		}
	}
	for _, u := range updates {
		if err := e.store.SetProvenance(ctx, u); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// UpsertTournament resolves the record's tournament and merges metadata.
func (e *Engine) UpsertTournament(ctx context.Context, lg *model.League, rec *model.NormalizedRecord) (*model.Tournament, Outcome, error) {
	if rec.Tournament == nil {
		return nil, Outcome{}, eris.New("reconcile: record has no tournament fields")
	}
	key := "tournament:" + itoaKey(lg.ID) + ":" + normalize.NormalizeName(rec.Tournament.Name) + ":" + itoaKey(int64(rec.Tournament.Year))
	unlock := e.lockEntity(key)
	defer unlock()

	res, err := e.resolver.ResolveTournament(ctx, lg.ID, rec)
	if err != nil {
		return nil, Outcome{}, err
	}
	t := res.Tournament

	incoming := tournamentFieldValues(rec.Tournament, rec.Source)
	for k, fv := range incoming {
		fv.Rank = e.ranks.Rank(fv.Source)
		incoming[k] = fv
	}
	prov, err := e.store.GetProvenance(ctx, model.EntityTournament, t.ID)
	if err != nil {
		return nil, Outcome{}, err
	}
	changed, updates := MergeTournament(t, incoming, prov)
	if changed {
		if err := e.store.UpdateTournament(ctx, t); err != nil {
			return nil, Outcome{}, err
		}
	}
	for _, u := range updates {
		u.EntityID = t.ID
		if err := e.store.SetProvenance(ctx, u); err != nil {
			return nil, Outcome{}, err
		}
	}
	return t, Outcome{Created: res.Created, Updated: changed && !res.Created}, nil
}

// UpsertResult writes one player's result for a tournament. The
// authoritative source for the league may overwrite stored numbers;
// anyone else may only fill gaps, and a disagreement on filled numbers
// rejects the record.
func (e *Engine) UpsertResult(ctx context.Context, lg *model.League, authoritativeSource string, tournamentID int64, rec *model.NormalizedRecord) (Outcome, error) {
	if rec.Result == nil {
		return Outcome{}, eris.New("reconcile: record has no result fields")
	}

	tournament, err := e.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return Outcome{}, err
	}
	if tournament != nil && tournament.TotalRounds > 0 && len(rec.Result.RoundScores) > tournament.TotalRounds {
		return Outcome{}, eris.Wrapf(ErrConflictingResult,
			"reconcile: %s reports %d round scores for tournament %d which declares %d rounds",
			rec.Source, len(rec.Result.RoundScores), tournamentID, tournament.TotalRounds)
	}
	if tournament != nil {
		deriveTotals(rec.Result, tournament.Par)
	}

	player, pOutcome, err := e.UpsertPlayer(ctx, lg, rec)
	if err != nil {
		return Outcome{}, err
	}

	unlock := e.lockEntity("result:" + itoaKey(tournamentID) + ":" + itoaKey(player.ID))
	defer unlock()

	existing, err := e.store.GetResult(ctx, tournamentID, player.ID)
	if err != nil {
		return Outcome{}, err
	}

	in := rec.Result
	if existing == nil {
		r := &model.TournamentResult{
			TournamentID:    tournamentID,
			PlayerID:        player.ID,
			FinalPosition:   in.Position,
			PositionDisplay: in.PositionDisplay,
			TotalScore:      in.TotalScore,
			TotalToPar:      in.TotalToPar,
			RoundScores:     in.RoundScores,
			Status:          in.Status,
			Earnings:        in.Earnings,
			MadeCut:         madeCut(in),
		}
		if err := e.store.CreateResult(ctx, r); err != nil {
			return Outcome{}, err
		}
		return Outcome{Created: true, Updated: pOutcome.Updated}, nil
	}

	authoritative := rec.Source == authoritativeSource
	if !authoritative && resultConflicts(existing, in) {
		return Outcome{}, eris.Wrapf(ErrConflictingResult,
			"reconcile: %s disagrees with stored result for player %d in tournament %d",
			rec.Source, player.ID, tournamentID)
	}

	updated := mergeResult(existing, in, authoritative)
	if updated {
		if err := e.store.UpdateResult(ctx, existing); err != nil {
			return Outcome{}, err
		}
		zap.L().Debug("updated result",
			zap.Int64("tournament_id", tournamentID),
			zap.Int64("player_id", player.ID),
			zap.String("source", rec.Source))
	}
	return Outcome{Updated: updated}, nil
}

// deriveTotals fills the total score and to-par from complete round
// scores when the feed omitted them. A nil round means the score is
// still unknown, so nothing is derived.
func deriveTotals(in *model.ResultFields, par int) {
	if len(in.RoundScores) == 0 {
		return
	}
	sum := 0
	for _, r := range in.RoundScores {
		if r == nil {
			return
		}
		sum += *r
	}
	if in.TotalScore == nil {
		v := sum
		in.TotalScore = &v
	}
	if in.TotalToPar == nil && par > 0 {
		v := sum - len(in.RoundScores)*par
		in.TotalToPar = &v
	}
}

func madeCut(in *model.ResultFields) bool {
	switch in.Status {
	case model.ResultCut, model.ResultWithdrawn, model.ResultDisqualified:
		return false
	}
	return in.Position != nil || in.TotalScore != nil
}

// resultConflicts reports whether incoming numbers disagree with stored
// non-nil numbers.
func resultConflicts(stored *model.TournamentResult, in *model.ResultFields) bool {
	if intConflict(stored.FinalPosition, in.Position) ||
		intConflict(stored.TotalScore, in.TotalScore) ||
		intConflict(stored.TotalToPar, in.TotalToPar) {
		return true
	}
	if stored.RoundScores != nil && in.RoundScores != nil {
		if len(stored.RoundScores) != len(in.RoundScores) {
			return true
		}
		for i := range stored.RoundScores {
			if intConflict(stored.RoundScores[i], in.RoundScores[i]) {
				return true
			}
		}
	}
	return false
}

func intConflict(stored, incoming *int) bool {
	return stored != nil && incoming != nil && *stored != *incoming
}

// mergeResult applies incoming result fields. Authoritative sources
// overwrite; others fill nil fields only. Returns whether anything
// changed.
func mergeResult(stored *model.TournamentResult, in *model.ResultFields, authoritative bool) bool {
	changed := false

	setInt := func(dst **int, src *int) {
		if src == nil {
			return
		}
		if *dst == nil || (authoritative && **dst != *src) {
			v := *src
			*dst = &v
			changed = true
		}
	}
	setInt(&stored.FinalPosition, in.Position)
	setInt(&stored.TotalScore, in.TotalScore)
	setInt(&stored.TotalToPar, in.TotalToPar)

	if in.RoundScores != nil {
		if stored.RoundScores == nil || (authoritative && !roundsEqual(stored.RoundScores, in.RoundScores)) {
			stored.RoundScores = in.RoundScores
			changed = true
		}
	}
	if in.PositionDisplay != "" && (stored.PositionDisplay == "" || (authoritative && stored.PositionDisplay != in.PositionDisplay)) {
		stored.PositionDisplay = in.PositionDisplay
		changed = true
	}
	if in.Status != "" && (authoritative || stored.Status == "" || stored.Status == model.ResultActive) && stored.Status != in.Status {
		stored.Status = in.Status
		changed = true
	}
	if in.Earnings != nil {
		if stored.Earnings == nil || (authoritative && *stored.Earnings != *in.Earnings) {
			v := *in.Earnings
			stored.Earnings = &v
			changed = true
		}
	}
	if mc := madeCut(in); changed && stored.MadeCut != mc && (authoritative || !stored.MadeCut) {
		stored.MadeCut = mc
	}
	return changed
}

func roundsEqual(a, b []*int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if (a[i] == nil) != (b[i] == nil) {
			return false
		}
		if a[i] != nil && *a[i] != *b[i] {
			return false
		}
	}
	return true
}

func itoaKey(n int64) string {
	return strconv.FormatInt(n, 10)
}
