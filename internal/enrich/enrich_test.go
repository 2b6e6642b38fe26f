package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/fetcher"
	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/reconcile"
	"github.com/fairway-media/golftracker/internal/resilience"
	"github.com/fairway-media/golftracker/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testDeps(t *testing.T) (*store.SQLiteStore, *reconcile.Engine) {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s, reconcile.NewEngine(s, reconcile.DefaultRanks())
}

func seedPlayer(t *testing.T, s *store.SQLiteStore, p model.Player) *model.Player {
	t.Helper()
	require.NoError(t, s.CreatePlayer(context.Background(), &p))
	return &p
}

func fastFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		MinDelay: time.Millisecond,
		Timeout:  5 * time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
		},
	})
}

// fakeSource returns scripted fields and records the requests it got.
type fakeSource struct {
	name    string
	bio     model.BioFields
	err     error
	calls   int
	askedFor [][]string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(_ context.Context, _ *model.Player, missing []string) (model.BioFields, error) {
	f.calls++
	f.askedFor = append(f.askedFor, append([]string(nil), missing...))
	return f.bio, f.err
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func TestCascadeShortCircuits(t *testing.T) {
	s, engine := testDeps(t)
	p := seedPlayer(t, s, model.Player{FirstName: "Scottie", LastName: "Scheffler"})

	wiki := &fakeSource{name: "wikipedia", bio: model.BioFields{
		HighSchoolName:     strp("Highland Park High School"),
		HighSchoolCity:     strp("University Park"),
		HighSchoolState:    strp("TX"),
		HighSchoolGradYear: intp(2014),
		HometownCity:       strp("Dallas"),
		HometownState:      strp("TX"),
		CollegeName:        strp("University of Texas"),
	}}
	search := &fakeSource{name: "websearch"}
	ai := &fakeSource{name: "ai"}

	c := NewCascade(s, engine, wiki, search, ai)
	report, err := c.EnrichPlayer(context.Background(), p.ID)
	require.NoError(t, err)

	// the first source completed the checklist, later ones never ran
	assert.Equal(t, 1, wiki.calls)
	assert.Zero(t, search.calls)
	assert.Zero(t, ai.calls)
	assert.Empty(t, report.Missing)
	assert.Len(t, report.Filled, 7)

	got, err := s.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Highland Park High School", got.HighSchoolName)
	assert.NotNil(t, got.BioLastUpdated)
}

func TestCascadeAsksOnlyForMissing(t *testing.T) {
	s, engine := testDeps(t)
	p := seedPlayer(t, s, model.Player{
		FirstName: "Scottie", LastName: "Scheffler",
		HighSchoolName: "Highland Park High School", HighSchoolCity: "University Park",
		HighSchoolState: "TX", HighSchoolGradYear: 2014,
		HometownCity: "Dallas", HometownState: "TX",
	})

	wiki := &fakeSource{name: "wikipedia"}
	c := NewCascade(s, engine, wiki)
	_, err := c.EnrichPlayer(context.Background(), p.ID)
	require.NoError(t, err)

	require.Len(t, wiki.askedFor, 1)
	assert.Equal(t, []string{model.FieldCollegeName}, wiki.askedFor[0])
}

func TestCascadeFallsPastFailingSource(t *testing.T) {
	s, engine := testDeps(t)
	p := seedPlayer(t, s, model.Player{FirstName: "Cameron", LastName: "Smith"})

	wiki := &fakeSource{name: "wikipedia", err: assert.AnError}
	search := &fakeSource{name: "websearch", bio: model.BioFields{HometownCity: strp("Brisbane")}}

	c := NewCascade(s, engine, wiki, search)
	report, err := c.EnrichPlayer(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"wikipedia", "websearch"}, report.Tried)
	got, err := s.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brisbane", got.HometownCity)
}

func TestCascadeLaterSourceCannotOverwrite(t *testing.T) {
	s, engine := testDeps(t)
	p := seedPlayer(t, s, model.Player{FirstName: "Scottie", LastName: "Scheffler"})

	wiki := &fakeSource{name: "wikipedia", bio: model.BioFields{HighSchoolName: strp("Highland Park High School")}}
	ai := &fakeSource{name: "ai", bio: model.BioFields{
		HighSchoolName: strp("Some Other School"),
		HometownCity:   strp("Dallas"),
	}}

	c := NewCascade(s, engine, wiki, ai)
	_, err := c.EnrichPlayer(context.Background(), p.ID)
	require.NoError(t, err)

	got, err := s.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Highland Park High School", got.HighSchoolName)
	assert.Equal(t, "Dallas", got.HometownCity)
}

func TestEnrichMissingSkipsCompletePlayers(t *testing.T) {
	s, engine := testDeps(t)
	seedPlayer(t, s, model.Player{
		FirstName: "Scottie", LastName: "Scheffler",
		HighSchoolName: "Highland Park High School", HighSchoolGradYear: 2014,
		HometownCity: "Dallas", CollegeName: "University of Texas",
	})
	incomplete := seedPlayer(t, s, model.Player{FirstName: "Cameron", LastName: "Smith"})

	wiki := &fakeSource{name: "wikipedia"}
	c := NewCascade(s, engine, wiki)
	reports, err := c.EnrichMissing(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, incomplete.ID, reports[0].PlayerID)
}

func TestEnrichMissingRecordsLedgerRun(t *testing.T) {
	s, engine := testDeps(t)
	seedPlayer(t, s, model.Player{FirstName: "Cameron", LastName: "Smith"})
	seedPlayer(t, s, model.Player{FirstName: "Scottie", LastName: "Scheffler"})

	wiki := &fakeSource{name: "wikipedia", bio: model.BioFields{HometownCity: strp("Dallas")}}
	c := NewCascade(s, engine, wiki)
	_, err := c.EnrichMissing(context.Background(), 10)
	require.NoError(t, err)

	runs, err := s.ListScrapeRuns(context.Background(), store.RunFilter{Source: "cascade"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.ScrapePlayerBio, runs[0].ScrapeType)
	assert.Equal(t, model.RunSuccess, runs[0].Status)
	assert.Equal(t, 2, runs[0].RecordsProcessed)
	assert.Equal(t, 2, runs[0].RecordsUpdated)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestWikipediaSourceExtracts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page/summary/Scottie_Scheffler", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Scottie Scheffler",
			"description": "American professional golfer",
			"extract": "` + schefflerExtract + `"
		}`))
	}))
	defer srv.Close()

	src := NewWikipedia(fastFetcher(), srv.URL)
	bio, err := src.Lookup(context.Background(),
		&model.Player{FirstName: "Scottie", LastName: "Scheffler"},
		model.BioChecklist)
	require.NoError(t, err)
	require.NotNil(t, bio.HighSchoolName)
	assert.Equal(t, "Highland Park High School", *bio.HighSchoolName)
	require.NotNil(t, bio.HighSchoolGradYear)
	assert.Equal(t, 2014, *bio.HighSchoolGradYear)
}

func TestWikipediaSourceSkipsDisambiguation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title": "Cameron Smith", "type": "disambiguation", "extract": "Cameron Smith may refer to Highland Park High School people."}`))
	}))
	defer srv.Close()

	src := NewWikipedia(fastFetcher(), srv.URL)
	bio, err := src.Lookup(context.Background(),
		&model.Player{FirstName: "Cameron", LastName: "Smith"},
		model.BioChecklist)
	require.NoError(t, err)
	assert.True(t, bio.IsEmpty())
}

func TestWikipediaSourceSkipsNonGolfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title": "Cameron Smith", "description": "Australian rugby league footballer", "extract": "Cameron Smith attended Marsden State High School."}`))
	}))
	defer srv.Close()

	src := NewWikipedia(fastFetcher(), srv.URL)
	bio, err := src.Lookup(context.Background(),
		&model.Player{FirstName: "Cameron", LastName: "Smith"},
		model.BioChecklist)
	require.NoError(t, err)
	assert.True(t, bio.IsEmpty())
}

func TestWebSearchSourceExtracts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "Scheffler")
		assert.Contains(t, r.URL.Query().Get("q"), "high school")
		w.Write([]byte(`<html><body><div class="result">Scottie Scheffler graduated in 2014 from <b>Highland Park High School</b> in Dallas.</div></body></html>`))
	}))
	defer srv.Close()

	src := NewWebSearch(fastFetcher(), srv.URL)
	bio, err := src.Lookup(context.Background(),
		&model.Player{FirstName: "Scottie", LastName: "Scheffler"},
		[]string{model.FieldHighSchoolName, model.FieldHighSchoolGradYear})
	require.NoError(t, err)
	require.NotNil(t, bio.HighSchoolName)
	assert.Equal(t, "Highland Park High School", *bio.HighSchoolName)
	require.NotNil(t, bio.HighSchoolGradYear)
	assert.Equal(t, 2014, *bio.HighSchoolGradYear)
}

func TestWebSearchSourceIgnoresUnrelatedResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Some totally unrelated page about Jordan Spieth High School years.</body></html>`))
	}))
	defer srv.Close()

	src := NewWebSearch(fastFetcher(), srv.URL)
	bio, err := src.Lookup(context.Background(),
		&model.Player{FirstName: "Scottie", LastName: "Scheffler"},
		model.BioChecklist)
	require.NoError(t, err)
	assert.True(t, bio.IsEmpty())
}
