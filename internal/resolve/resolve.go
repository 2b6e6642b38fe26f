// Package resolve maps source records onto canonical player and
// tournament identities. Resolution tries the source's own native ID
// first, then falls back to the normalized composite name key, and only
// creates a new entity when neither path finds one.
package resolve

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/normalize"
	"github.com/fairway-media/golftracker/internal/store"
)

// ErrAmbiguousIdentity is returned when the composite key matches more
// than one existing entity and neither a native binding nor the record's
// school or hometown disambiguates. Records hitting this are skipped,
// never guessed.
var ErrAmbiguousIdentity = errors.New("ambiguous identity")

// Resolver resolves normalized records to store entities.
type Resolver struct {
	store store.Store
}

func New(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// PlayerResolution reports how a player record was matched.
type PlayerResolution struct {
	Player  *model.Player
	Created bool
	// Matched is "native", "composite" or "created".
	Matched string
}

// ResolvePlayer finds or creates the canonical player for a normalized
// record. A successful composite match also binds the source's native ID
// so later runs take the native path.
func (r *Resolver) ResolvePlayer(ctx context.Context, rec *model.NormalizedRecord) (*PlayerResolution, error) {
	if rec.Player == nil {
		return nil, eris.New("resolve: record has no player fields")
	}

	if rec.NativeID != "" {
		p, err := r.store.GetPlayerBySource(ctx, rec.Source, rec.NativeID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return &PlayerResolution{Player: p, Matched: "native"}, nil
		}
	}

	firstKey := normalize.NormalizeName(rec.Player.FirstName)
	lastKey := normalize.NormalizeName(rec.Player.LastName)
	if lastKey == "" {
		return nil, eris.Errorf("resolve: player record from %s has no last name", rec.Source)
	}

	candidates, err := r.store.FindPlayersByNameKey(ctx, firstKey, lastKey)
	if err != nil {
		return nil, err
	}
	matched := narrowByBio(candidates, rec.Player)
	switch len(matched) {
	case 0:
		// no namesake, or every namesake contradicts the record's
		// school or hometown: this is a new player
	case 1:
		p := &matched[0]
		if err := r.bindPlayer(ctx, p.ID, rec); err != nil {
			return nil, err
		}
		return &PlayerResolution{Player: p, Matched: "composite"}, nil
	default:
		return nil, eris.Wrapf(ErrAmbiguousIdentity,
			"resolve: %d players match %s %s (source %s, native id %q)",
			len(matched), rec.Player.FirstName, rec.Player.LastName, rec.Source, rec.NativeID)
	}

	p := &model.Player{
		FirstName: rec.Player.FirstName,
		LastName:  rec.Player.LastName,
	}
	if err := r.store.CreatePlayer(ctx, p); err != nil {
		return nil, err
	}
	if err := r.bindPlayer(ctx, p.ID, rec); err != nil {
		return nil, err
	}
	zap.L().Debug("created player",
		zap.Int64("player_id", p.ID),
		zap.String("name", p.FirstName+" "+p.LastName),
		zap.String("source", rec.Source))
	return &PlayerResolution{Player: p, Created: true, Matched: "created"}, nil
}

// narrowByBio disambiguates name collisions with the record's school and
// hometown. Candidates whose stored value contradicts the record are
// dropped; among the survivors, a candidate that affirmatively shares a
// value beats one that merely has the field empty. A record carrying no
// school or hometown cannot narrow anything and returns the candidates
// untouched.
func narrowByBio(candidates []model.Player, fv *model.PlayerFields) []model.Player {
	if fv.Bio.HighSchoolName == nil && fv.Bio.HometownCity == nil {
		return candidates
	}
	var consistent, confirmed []model.Player
	for i := range candidates {
		c := &candidates[i]
		if bioContradicts(c, fv) {
			continue
		}
		consistent = append(consistent, *c)
		if bioConfirms(c, fv) {
			confirmed = append(confirmed, *c)
		}
	}
	if len(confirmed) > 0 {
		return confirmed
	}
	return consistent
}

func bioContradicts(p *model.Player, fv *model.PlayerFields) bool {
	if s := fv.Bio.HighSchoolName; s != nil && p.HighSchoolName != "" &&
		normalize.NormalizeName(p.HighSchoolName) != normalize.NormalizeName(*s) {
		return true
	}
	if h := fv.Bio.HometownCity; h != nil && p.HometownCity != "" &&
		normalize.NormalizeName(p.HometownCity) != normalize.NormalizeName(*h) {
		return true
	}
	return false
}

func bioConfirms(p *model.Player, fv *model.PlayerFields) bool {
	if s := fv.Bio.HighSchoolName; s != nil && p.HighSchoolName != "" &&
		normalize.NormalizeName(p.HighSchoolName) == normalize.NormalizeName(*s) {
		return true
	}
	if h := fv.Bio.HometownCity; h != nil && p.HometownCity != "" &&
		normalize.NormalizeName(p.HometownCity) == normalize.NormalizeName(*h) {
		return true
	}
	return false
}

func (r *Resolver) bindPlayer(ctx context.Context, playerID int64, rec *model.NormalizedRecord) error {
	if rec.NativeID == "" {
		return nil
	}
	return r.store.BindPlayerSource(ctx, playerID, model.SourceBinding{
		Source:   rec.Source,
		NativeID: rec.NativeID,
	})
}

// TournamentResolution reports how a tournament record was matched.
type TournamentResolution struct {
	Tournament *model.Tournament
	Created    bool
	Matched    string
}

// ResolveTournament finds or creates the tournament for a normalized
// record within the given league. Tournaments key on the normalized name
// plus year, so the same event fetched from two sources lands on one row.
func (r *Resolver) ResolveTournament(ctx context.Context, leagueID int64, rec *model.NormalizedRecord) (*TournamentResolution, error) {
	if rec.Tournament == nil {
		return nil, eris.New("resolve: record has no tournament fields")
	}

	if rec.NativeID != "" {
		t, err := r.store.GetTournamentBySource(ctx, rec.Source, rec.NativeID)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return &TournamentResolution{Tournament: t, Matched: "native"}, nil
		}
	}

	nameKey := normalize.NormalizeName(rec.Tournament.Name)
	if nameKey == "" || rec.Tournament.Year == 0 {
		return nil, eris.Errorf("resolve: tournament record from %s missing name or year", rec.Source)
	}

	t, err := r.store.GetTournamentByKey(ctx, leagueID, nameKey, rec.Tournament.Year)
	if err != nil {
		return nil, err
	}
	if t != nil {
		if err := r.bindTournament(ctx, t.ID, rec); err != nil {
			return nil, err
		}
		return &TournamentResolution{Tournament: t, Matched: "composite"}, nil
	}

	t = &model.Tournament{
		LeagueID: leagueID,
		Name:     rec.Tournament.Name,
		Year:     rec.Tournament.Year,
	}
	if err := r.store.CreateTournament(ctx, t); err != nil {
		return nil, err
	}
	if err := r.bindTournament(ctx, t.ID, rec); err != nil {
		return nil, err
	}
	zap.L().Debug("created tournament",
		zap.Int64("tournament_id", t.ID),
		zap.String("name", t.Name),
		zap.Int("year", t.Year),
		zap.String("source", rec.Source))
	return &TournamentResolution{Tournament: t, Created: true, Matched: "created"}, nil
}

func (r *Resolver) bindTournament(ctx context.Context, tournamentID int64, rec *model.NormalizedRecord) error {
	if rec.NativeID == "" {
		return nil
	}
	return r.store.BindTournamentSource(ctx, tournamentID, model.SourceBinding{
		Source:   rec.Source,
		NativeID: rec.NativeID,
	})
}
