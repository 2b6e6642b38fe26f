package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// --- migration SQL content tests ---

func TestPostgresMigrationSQL(t *testing.T) {
	assert.Contains(t, postgresMigration, "CREATE TABLE IF NOT EXISTS players")
	assert.Contains(t, postgresMigration, "first_name_key")
	assert.Contains(t, postgresMigration, "CREATE TABLE IF NOT EXISTS player_sources")
	assert.Contains(t, postgresMigration, "PRIMARY KEY (source, native_id)")
	assert.Contains(t, postgresMigration, "UNIQUE (league_id, name_key, tournament_year)")
	assert.Contains(t, postgresMigration, "UNIQUE (tournament_id, player_id)")
	assert.Contains(t, postgresMigration, "CREATE TABLE IF NOT EXISTS field_provenance")
	assert.Contains(t, postgresMigration, "CREATE TABLE IF NOT EXISTS scrape_logs")
}

func TestSQLiteMigrationMirrorsPostgres(t *testing.T) {
	for _, table := range []string{
		"leagues", "players", "player_sources", "player_leagues",
		"tournaments", "tournament_sources", "tournament_results",
		"field_provenance", "scrape_logs",
	} {
		assert.Contains(t, sqliteMigration, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

// --- pgxmock tests ---

func mockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgres(mock), mock
}

func TestPostgresEnsureLeague(t *testing.T) {
	s, mock := mockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO leagues").
		WithArgs("PGA", "PGA Tour").
		WillReturnRows(pgxmock.NewRows([]string{
			"league_id", "league_code", "league_name", "website_url", "is_active", "created_at", "updated_at",
		}).AddRow(int64(1), "PGA", "PGA Tour", "", true, now, now))

	l, err := s.EnsureLeague(context.Background(), "PGA", "PGA Tour")
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.ID)
	assert.Equal(t, "PGA", l.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetLeagueNotFound(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM leagues").
		WithArgs("LPGA").
		WillReturnError(pgx.ErrNoRows)

	l, err := s.GetLeague(context.Background(), "LPGA")
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreatePlayerDerivesNameKeys(t *testing.T) {
	s, mock := mockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO players").
		WithArgs(
			"Ludvig", "Åberg", "LUDVIG", "ABERG", (*time.Time)(nil),
			"", "", "", 0,
			"", "", "",
			"", 0, "", (*time.Time)(nil),
		).
		WillReturnRows(pgxmock.NewRows([]string{"player_id", "created_at", "updated_at"}).
			AddRow(int64(7), now, now))

	p := &model.Player{FirstName: "Ludvig", LastName: "Åberg"}
	require.NoError(t, s.CreatePlayer(context.Background(), p))
	assert.Equal(t, int64(7), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetPlayerBySourceNotFound(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM players").
		WithArgs("pgatour", "99999").
		WillReturnError(pgx.ErrNoRows)

	p, err := s.GetPlayerBySource(context.Background(), "pgatour", "99999")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBindPlayerSource(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectExec("INSERT INTO player_sources").
		WithArgs("pgatour", "34046", int64(12)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.BindPlayerSource(context.Background(), 12, model.SourceBinding{Source: "pgatour", NativeID: "34046"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindPlayersByNameKey(t *testing.T) {
	s, mock := mockStore(t)
	now := time.Now()

	cols := []string{
		"player_id", "first_name", "last_name", "birth_date",
		"high_school_name", "high_school_city", "high_school_state", "high_school_grad_year",
		"hometown_city", "hometown_state", "hometown_country",
		"college_name", "college_grad_year", "profile_image_url",
		"bio_last_updated", "created_at", "updated_at",
	}
	rows := pgxmock.NewRows(cols).
		AddRow(int64(1), "Cameron", "Smith", (*time.Time)(nil), "", "", "", 0, "", "", "", "", 0, "", (*time.Time)(nil), now, now).
		AddRow(int64(2), "Cameron", "Smith", (*time.Time)(nil), "", "", "", 0, "", "", "", "", 0, "", (*time.Time)(nil), now, now)

	mock.ExpectQuery("SELECT (.+) FROM players").
		WithArgs("CAMERON", "SMITH").
		WillReturnRows(rows)

	players, err := s.FindPlayersByNameKey(context.Background(), "CAMERON", "SMITH")
	require.NoError(t, err)
	assert.Len(t, players, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetProvenance(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectExec("INSERT INTO field_provenance").
		WithArgs(model.EntityPlayer, int64(1), model.FieldHighSchoolName, "wikipedia", 60).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetProvenance(context.Background(), model.Provenance{
		EntityType: model.EntityPlayer, EntityID: 1,
		FieldKey: model.FieldHighSchoolName, Source: "wikipedia", Rank: 60,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateScrapeRunAssignsID(t *testing.T) {
	s, mock := mockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO scrape_logs").
		WithArgs(pgxmock.AnyArg(), "pgatour", model.ScrapeRoster, "PGA", model.RunStarted).
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(now))

	run := &model.ScrapeRun{Source: "pgatour", ScrapeType: model.ScrapeRoster, League: "PGA"}
	require.NoError(t, s.CreateScrapeRun(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStarted, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteScrapeRunIsConditional(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectExec(`UPDATE scrape_logs SET(.+)WHERE id=\$1 AND status='started'`).
		WithArgs("run-1", model.RunSuccess, 10, 5, 5, "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	run := &model.ScrapeRun{
		ID: "run-1", Status: model.RunSuccess,
		RecordsProcessed: 10, RecordsCreated: 5, RecordsUpdated: 5,
	}
	require.NoError(t, s.CompleteScrapeRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListScrapeRunsFilters(t *testing.T) {
	s, mock := mockStore(t)
	now := time.Now()

	cols := []string{
		"id", "source", "scrape_type", "league_code", "status",
		"records_processed", "records_created", "records_updated",
		"error_message", "started_at", "completed_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM scrape_logs").
		WithArgs("pgatour", "failed", 50).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("run-1", "pgatour", model.ScrapeRoster, "PGA", model.RunFailed,
				3, 0, 0, "upstream unavailable", now, &now))

	runs, err := s.ListScrapeRuns(context.Background(), RunFilter{Source: "pgatour", Status: model.RunFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunFailed, runs[0].Status)
	assert.Equal(t, "upstream unavailable", runs[0].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScrapeRunStats(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT source,(.+)FROM scrape_logs(.+)GROUP BY source").
		WillReturnRows(pgxmock.NewRows([]string{
			"source", "total", "succeeded", "partial", "failed", "processed", "created", "updated",
		}).AddRow("pgatour", 4, 2, 1, 1, 400, 300, 100))

	stats, err := s.ScrapeRunStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 4, stats[0].Total)
	assert.Equal(t, 400, stats[0].Processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetTournamentByKeyNotFound(t *testing.T) {
	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM tournaments").
		WithArgs(int64(1), "THE AMERICAN EXPRESS", 2024).
		WillReturnError(pgx.ErrNoRows)

	tr, err := s.GetTournamentByKey(context.Background(), 1, "THE AMERICAN EXPRESS", 2024)
	require.NoError(t, err)
	assert.Nil(t, tr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
