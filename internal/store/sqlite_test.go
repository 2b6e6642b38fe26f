package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairway-media/golftracker/internal/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testLeague(t *testing.T, s *SQLiteStore) *model.League {
	t.Helper()
	l, err := s.EnsureLeague(context.Background(), "PGA", "PGA Tour")
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func TestEnsureLeagueIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.EnsureLeague(ctx, "PGA", "PGA Tour")
	require.NoError(t, err)

	second, err := s.EnsureLeague(ctx, "PGA", "PGA TOUR")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "PGA TOUR", second.Name)

	all, err := s.ListLeagues(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetLeagueMissing(t *testing.T) {
	s := testStore(t)
	l, err := s.GetLeague(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestCreateAndGetPlayer(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &model.Player{FirstName: "Scottie", LastName: "Scheffler", HometownCity: "Dallas", HometownState: "TX"}
	require.NoError(t, s.CreatePlayer(ctx, p))
	assert.NotZero(t, p.ID)

	got, err := s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Scheffler", got.LastName)
	assert.Equal(t, "Dallas", got.HometownCity)
}

func TestGetPlayerMissing(t *testing.T) {
	s := testStore(t)
	p, err := s.GetPlayer(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdatePlayer(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &model.Player{FirstName: "Scottie", LastName: "Scheffler"}
	require.NoError(t, s.CreatePlayer(ctx, p))

	p.HighSchoolName = "Highland Park High School"
	p.HighSchoolGradYear = 2014
	now := time.Now().UTC()
	p.BioLastUpdated = &now
	require.NoError(t, s.UpdatePlayer(ctx, p))

	got, err := s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Highland Park High School", got.HighSchoolName)
	assert.Equal(t, 2014, got.HighSchoolGradYear)
	require.NotNil(t, got.BioLastUpdated)
}

func TestPlayerSourceBinding(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &model.Player{FirstName: "Scottie", LastName: "Scheffler", HometownCity: "Dallas"}
	require.NoError(t, s.CreatePlayer(ctx, p))

	binding := model.SourceBinding{Source: "pgatour", NativeID: "34046"}
	require.NoError(t, s.BindPlayerSource(ctx, p.ID, binding))
	// rebinding the same native id is a no-op
	require.NoError(t, s.BindPlayerSource(ctx, p.ID, binding))

	got, err := s.GetPlayerBySource(ctx, "pgatour", "34046")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Dallas", got.HometownCity)
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := s.GetPlayerBySource(ctx, "espn", "34046")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindPlayersByNameKey(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Young"}))

	matches, err := s.FindPlayersByNameKey(ctx, "CAMERON", "SMITH")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestFindPlayersByNameKeyFoldsDiacritics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Ludvig", LastName: "Åberg"}))

	matches, err := s.FindPlayersByNameKey(ctx, "LUDVIG", "ABERG")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Åberg", matches[0].LastName)
}

func TestLinkPlayerLeague(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	l := testLeague(t, s)

	p := &model.Player{FirstName: "Scottie", LastName: "Scheffler"}
	require.NoError(t, s.CreatePlayer(ctx, p))

	require.NoError(t, s.LinkPlayerLeague(ctx, p.ID, l.ID, "34046"))
	require.NoError(t, s.LinkPlayerLeague(ctx, p.ID, l.ID, "34046"))

	players, err := s.SearchPlayers(ctx, PlayerFilter{League: "PGA"})
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestListPlayersMissingBio(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	complete := &model.Player{
		FirstName: "Scottie", LastName: "Scheffler",
		HighSchoolName: "Highland Park High School", HighSchoolGradYear: 2014,
		HometownCity: "Dallas", CollegeName: "University of Texas",
	}
	require.NoError(t, s.CreatePlayer(ctx, complete))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{FirstName: "Cameron", LastName: "Smith"}))

	missing, err := s.ListPlayersMissingBio(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "Smith", missing[0].LastName)
}

func TestListPlayersMissingBioOrdersStalestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	stale := &model.Player{FirstName: "A", LastName: "One"}
	require.NoError(t, s.CreatePlayer(ctx, stale))
	old := time.Now().UTC().Add(-48 * time.Hour)
	stale.BioLastUpdated = &old
	require.NoError(t, s.UpdatePlayer(ctx, stale))

	never := &model.Player{FirstName: "B", LastName: "Two"}
	require.NoError(t, s.CreatePlayer(ctx, never))

	missing, err := s.ListPlayersMissingBio(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	// never-enriched players sort ahead of stale ones
	assert.Equal(t, "Two", missing[0].LastName)
	assert.Equal(t, "One", missing[1].LastName)
}

func TestSearchPlayersFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePlayer(ctx, &model.Player{
		FirstName: "Scottie", LastName: "Scheffler",
		HighSchoolName: "Highland Park High School", HometownState: "TX",
		CollegeName: "University of Texas",
	}))
	require.NoError(t, s.CreatePlayer(ctx, &model.Player{
		FirstName: "Jordan", LastName: "Spieth",
		HighSchoolName: "Jesuit Dallas", HometownState: "TX",
		CollegeName: "University of Texas",
	}))

	byHS, err := s.SearchPlayers(ctx, PlayerFilter{HighSchool: "highland park"})
	require.NoError(t, err)
	require.Len(t, byHS, 1)
	assert.Equal(t, "Scheffler", byHS[0].LastName)

	byCollege, err := s.SearchPlayers(ctx, PlayerFilter{College: "texas"})
	require.NoError(t, err)
	assert.Len(t, byCollege, 2)

	byState, err := s.SearchPlayers(ctx, PlayerFilter{HometownState: "TX", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, byState, 1)
}

func TestProvenanceRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	prov := model.Provenance{
		EntityType: model.EntityPlayer, EntityID: 1,
		FieldKey: model.FieldHighSchoolName, Source: "wikipedia", Rank: 60,
	}
	require.NoError(t, s.SetProvenance(ctx, prov))

	got, err := s.GetProvenance(ctx, model.EntityPlayer, 1)
	require.NoError(t, err)
	require.Contains(t, got, model.FieldHighSchoolName)
	assert.Equal(t, "wikipedia", got[model.FieldHighSchoolName].Source)
	assert.Equal(t, 60, got[model.FieldHighSchoolName].Rank)

	prov.Source = "pgatour"
	prov.Rank = 100
	require.NoError(t, s.SetProvenance(ctx, prov))

	got, err = s.GetProvenance(ctx, model.EntityPlayer, 1)
	require.NoError(t, err)
	assert.Equal(t, "pgatour", got[model.FieldHighSchoolName].Source)
	assert.Len(t, got, 1)
}

func TestTournamentByKeyAndSource(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	l := testLeague(t, s)

	tr := &model.Tournament{
		LeagueID: l.ID,
		Name:     "The American Express",
		Year:     2025,
	}
	require.NoError(t, s.CreateTournament(ctx, tr))
	assert.NotZero(t, tr.ID)
	assert.Equal(t, 4, tr.TotalRounds)
	assert.Equal(t, model.TournamentScheduled, tr.Status)

	byKey, err := s.GetTournamentByKey(ctx, l.ID, "THE AMERICAN EXPRESS", 2025)
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, tr.ID, byKey.ID)
	assert.Equal(t, "PGA", byKey.League)

	missing, err := s.GetTournamentByKey(ctx, l.ID, "THE AMERICAN EXPRESS", 2024)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.BindTournamentSource(ctx, tr.ID, model.SourceBinding{Source: "pgatour", NativeID: "R2025016"}))
	bySource, err := s.GetTournamentBySource(ctx, "pgatour", "R2025016")
	require.NoError(t, err)
	require.NotNil(t, bySource)
	assert.Equal(t, tr.ID, bySource.ID)
}

func TestListTournamentsFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	l := testLeague(t, s)

	for year := 2024; year <= 2025; year++ {
		require.NoError(t, s.CreateTournament(ctx, &model.Tournament{
			LeagueID: l.ID, Name: "The American Express", Year: year,
		}))
	}

	all, err := s.ListTournaments(ctx, TournamentFilter{League: "PGA"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := s.ListTournaments(ctx, TournamentFilter{Year: 2025})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, 2025, one[0].Year)
}

func TestResultRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	l := testLeague(t, s)

	p := &model.Player{FirstName: "Scottie", LastName: "Scheffler"}
	require.NoError(t, s.CreatePlayer(ctx, p))
	tr := &model.Tournament{LeagueID: l.ID, Name: "The American Express", Year: 2025}
	require.NoError(t, s.CreateTournament(ctx, tr))

	pos := 1
	total := 270
	toPar := -14
	r1, r2, r3, r4 := 68, 65, 70, 67
	res := &model.TournamentResult{
		TournamentID:    tr.ID,
		PlayerID:        p.ID,
		FinalPosition:   &pos,
		PositionDisplay: "1",
		TotalScore:      &total,
		TotalToPar:      &toPar,
		RoundScores:     []*int{&r1, &r2, &r3, &r4},
		MadeCut:         true,
	}
	require.NoError(t, s.CreateResult(ctx, res))
	assert.Equal(t, model.ResultActive, res.Status)

	got, err := s.GetResult(ctx, tr.ID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.TotalToPar)
	assert.Equal(t, -14, *got.TotalToPar)
	require.Len(t, got.RoundScores, 4)
	assert.Equal(t, 65, *got.RoundScores[1])
	assert.True(t, got.MadeCut)

	toPar = -12
	got.TotalToPar = &toPar
	require.NoError(t, s.UpdateResult(ctx, got))

	again, err := s.GetResult(ctx, tr.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, -12, *again.TotalToPar)

	list, err := s.ListResults(ctx, tr.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestResultNilRounds(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	l := testLeague(t, s)

	p := &model.Player{FirstName: "Cameron", LastName: "Smith"}
	require.NoError(t, s.CreatePlayer(ctx, p))
	tr := &model.Tournament{LeagueID: l.ID, Name: "The Open", Year: 2025}
	require.NoError(t, s.CreateTournament(ctx, tr))

	res := &model.TournamentResult{TournamentID: tr.ID, PlayerID: p.ID, Status: model.ResultCut}
	require.NoError(t, s.CreateResult(ctx, res))

	got, err := s.GetResult(ctx, tr.ID, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RoundScores)
	assert.Equal(t, model.ResultCut, got.Status)
}

func TestScrapeRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &model.ScrapeRun{Source: "pgatour", ScrapeType: model.ScrapeRoster, League: "PGA"}
	require.NoError(t, s.CreateScrapeRun(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStarted, run.Status)

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RunStarted, got.Status)
	assert.Nil(t, got.CompletedAt)

	run.Status = model.RunSuccess
	run.RecordsProcessed = 200
	run.RecordsCreated = 150
	run.RecordsUpdated = 50
	require.NoError(t, s.CompleteScrapeRun(ctx, run))

	got, err = s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunSuccess, got.Status)
	assert.Equal(t, 200, got.RecordsProcessed)
	require.NotNil(t, got.CompletedAt)
}

func TestCompleteScrapeRunOnlyOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &model.ScrapeRun{Source: "pgatour", ScrapeType: model.ScrapeRoster}
	require.NoError(t, s.CreateScrapeRun(ctx, run))

	run.Status = model.RunFailed
	run.ErrorMessage = "upstream unavailable"
	require.NoError(t, s.CompleteScrapeRun(ctx, run))

	// a second completion must not overwrite the terminal record
	run.Status = model.RunSuccess
	run.ErrorMessage = ""
	require.NoError(t, s.CompleteScrapeRun(ctx, run))

	got, err := s.GetScrapeRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, got.Status)
	assert.Equal(t, "upstream unavailable", got.ErrorMessage)
}

func TestListScrapeRunsAndStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, status := range []model.RunStatus{model.RunSuccess, model.RunFailed, model.RunSuccess} {
		run := &model.ScrapeRun{Source: "pgatour", ScrapeType: model.ScrapeRoster, League: "PGA"}
		require.NoError(t, s.CreateScrapeRun(ctx, run))
		run.Status = status
		run.RecordsProcessed = 10 * (i + 1)
		require.NoError(t, s.CompleteScrapeRun(ctx, run))
	}
	espnRun := &model.ScrapeRun{Source: "espn", ScrapeType: model.ScrapeTournaments}
	require.NoError(t, s.CreateScrapeRun(ctx, espnRun))

	failed, err := s.ListScrapeRuns(ctx, RunFilter{Status: model.RunFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 20, failed[0].RecordsProcessed)

	espnOnly, err := s.ListScrapeRuns(ctx, RunFilter{Source: "espn"})
	require.NoError(t, err)
	assert.Len(t, espnOnly, 1)

	stats, err := s.ScrapeRunStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "espn", stats[0].Source)
	assert.Equal(t, "pgatour", stats[1].Source)
	assert.Equal(t, 3, stats[1].Total)
	assert.Equal(t, 2, stats[1].Succeeded)
	assert.Equal(t, 1, stats[1].Failed)
	assert.Equal(t, 60, stats[1].Processed)
}
