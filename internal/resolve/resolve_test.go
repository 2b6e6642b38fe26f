package resolve

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

func testSetup(t *testing.T) (*Resolver, *store.SQLiteStore, *model.League) {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	l, err := s.EnsureLeague(context.Background(), "PGA", "PGA Tour")
	require.NoError(t, err)
	return New(s), s, l
}

func playerRecord(source, nativeID, first, last string) *model.NormalizedRecord {
	return &model.NormalizedRecord{
		Source:   source,
		Kind:     model.KindPlayer,
		League:   "PGA",
		NativeID: nativeID,
		Player:   &model.PlayerFields{FirstName: first, LastName: last},
	}
}

func TestResolvePlayerCreatesWhenUnknown(t *testing.T) {
	r, _, _ := testSetup(t)

	res, err := r.ResolvePlayer(context.Background(), playerRecord("pgatour", "34046", "Scottie", "Scheffler"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "created", res.Matched)
	assert.NotZero(t, res.Player.ID)
}

func TestResolvePlayerNativeIDWins(t *testing.T) {
	r, _, _ := testSetup(t)
	ctx := context.Background()

	first, err := r.ResolvePlayer(ctx, playerRecord("pgatour", "34046", "Scottie", "Scheffler"))
	require.NoError(t, err)

	// same native id, even with a differently spelled name, hits the binding
	again, err := r.ResolvePlayer(ctx, playerRecord("pgatour", "34046", "Scott", "Scheffler"))
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, "native", again.Matched)
	assert.Equal(t, first.Player.ID, again.Player.ID)
}

func TestResolvePlayerCompositeMatchBindsSource(t *testing.T) {
	r, _, _ := testSetup(t)
	ctx := context.Background()

	created, err := r.ResolvePlayer(ctx, playerRecord("pgatour", "34046", "Scottie", "Scheffler"))
	require.NoError(t, err)

	// a second source knows the player by a different native id
	res, err := r.ResolvePlayer(ctx, playerRecord("espn", "9478", "Scottie", "Scheffler"))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "composite", res.Matched)
	assert.Equal(t, created.Player.ID, res.Player.ID)

	// the composite match recorded the espn binding
	third, err := r.ResolvePlayer(ctx, playerRecord("espn", "9478", "S.", "Scheffler"))
	require.NoError(t, err)
	assert.Equal(t, "native", third.Matched)
	assert.Equal(t, created.Player.ID, third.Player.ID)
}

func TestResolvePlayerFoldsDiacritics(t *testing.T) {
	r, _, _ := testSetup(t)
	ctx := context.Background()

	created, err := r.ResolvePlayer(ctx, playerRecord("pgatour", "52955", "Ludvig", "Åberg"))
	require.NoError(t, err)

	res, err := r.ResolvePlayer(ctx, playerRecord("espn", "11284", "Ludvig", "Aberg"))
	require.NoError(t, err)
	assert.Equal(t, "composite", res.Matched)
	assert.Equal(t, created.Player.ID, res.Player.ID)
}

func TestResolvePlayerAmbiguous(t *testing.T) {
	r, s, _ := testSetup(t)
	ctx := context.Background()

	// two distinct Cameron Smiths already exist
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))

	_, err := r.ResolvePlayer(ctx, playerRecord("espn", "", "Cameron", "Smith"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousIdentity)
}

func strp(s string) *string { return &s }

func TestResolvePlayerHometownDisambiguates(t *testing.T) {
	r, s, _ := testSetup(t)
	ctx := context.Background()

	aussie := &model.Player{FirstName: "Cameron", LastName: "Smith", HometownCity: "Brisbane"}
	require.NoError(t, s.CreatePlayer(ctx, aussie))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))

	rec := playerRecord("espn", "9999", "Cameron", "Smith")
	rec.Player.Bio.HometownCity = strp("Brisbane")
	res, err := r.ResolvePlayer(ctx, rec)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "composite", res.Matched)
	assert.Equal(t, aussie.ID, res.Player.ID)
}

func TestResolvePlayerSchoolContradictionCreatesNew(t *testing.T) {
	r, s, _ := testSetup(t)
	ctx := context.Background()

	existing := &model.Player{FirstName: "Cameron", LastName: "Smith", HighSchoolName: "Wavell State High School"}
	require.NoError(t, s.CreatePlayer(ctx, existing))

	rec := playerRecord("espn", "", "Cameron", "Smith")
	rec.Player.Bio.HighSchoolName = strp("Kelvin Grove State College")
	res, err := r.ResolvePlayer(ctx, rec)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEqual(t, existing.ID, res.Player.ID)
}

func TestResolvePlayerBioCannotNarrowBlankCandidates(t *testing.T) {
	r, s, _ := testSetup(t)
	ctx := context.Background()

	// neither namesake carries a hometown, so the record's cannot pick one
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))

	rec := playerRecord("espn", "", "Cameron", "Smith")
	rec.Player.Bio.HometownCity = strp("Brisbane")
	_, err := r.ResolvePlayer(ctx, rec)
	assert.ErrorIs(t, err, ErrAmbiguousIdentity)
}

func TestResolvePlayerNativeIDBypassesAmbiguity(t *testing.T) {
	r, s, _ := testSetup(t)
	ctx := context.Background()

	one := &model.Player{FirstName: "Cameron", LastName: "Smith"}
	require.NoError(t, s.CreatePlayer(ctx, one))
	require.NoError(t, s.BindPlayerSource(ctx, one.ID, model.SourceBinding{Source: "liv", NativeID: "cs-1"}))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))

	res, err := r.ResolvePlayer(ctx, playerRecord("liv", "cs-1", "Cameron", "Smith"))
	require.NoError(t, err)
	assert.Equal(t, "native", res.Matched)
	assert.Equal(t, one.ID, res.Player.ID)
}

func TestResolvePlayerMissingLastName(t *testing.T) {
	r, _, _ := testSetup(t)

	_, err := r.ResolvePlayer(context.Background(), playerRecord("espn", "", "Scottie", ""))
	require.Error(t, err)
}

func tournamentRecord(source, nativeID, name string, year int) *model.NormalizedRecord {
	return &model.NormalizedRecord{
		Source:     source,
		Kind:       model.KindTournament,
		League:     "PGA",
		NativeID:   nativeID,
		Tournament: &model.TournamentFields{Name: name, Year: year},
	}
}

func TestResolveTournamentCreateThenMatch(t *testing.T) {
	r, _, l := testSetup(t)
	ctx := context.Background()

	created, err := r.ResolveTournament(ctx, l.ID, tournamentRecord("pgatour", "R2025016", "The American Express", 2025))
	require.NoError(t, err)
	assert.True(t, created.Created)

	// same event from another source under a different native id
	res, err := r.ResolveTournament(ctx, l.ID, tournamentRecord("espn", "401580329", "The American Express", 2025))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "composite", res.Matched)
	assert.Equal(t, created.Tournament.ID, res.Tournament.ID)

	// native path on repeat
	again, err := r.ResolveTournament(ctx, l.ID, tournamentRecord("espn", "401580329", "American Express", 2025))
	require.NoError(t, err)
	assert.Equal(t, "native", again.Matched)
	assert.Equal(t, created.Tournament.ID, again.Tournament.ID)
}

func TestResolveTournamentYearSeparatesEditions(t *testing.T) {
	r, _, l := testSetup(t)
	ctx := context.Background()

	y2024, err := r.ResolveTournament(ctx, l.ID, tournamentRecord("pgatour", "R2024016", "The American Express", 2024))
	require.NoError(t, err)
	y2025, err := r.ResolveTournament(ctx, l.ID, tournamentRecord("pgatour", "R2025016", "The American Express", 2025))
	require.NoError(t, err)

	assert.NotEqual(t, y2024.Tournament.ID, y2025.Tournament.ID)
}

func TestResolveTournamentMissingYear(t *testing.T) {
	r, _, l := testSetup(t)

	_, err := r.ResolveTournament(context.Background(), l.ID, tournamentRecord("espn", "", "The Open", 0))
	require.Error(t, err)
}
