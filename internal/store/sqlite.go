package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for
// local development and tests; the schema mirrors the Postgres one minus
// server-side defaults, with timestamps written from Go.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps :memory: databases stable and avoids
	// SQLITE_BUSY under concurrent writers.
	sqlDB.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leagues (
	league_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	league_code  TEXT NOT NULL UNIQUE,
	league_name  TEXT NOT NULL,
	website_url  TEXT NOT NULL DEFAULT '',
	is_active    INTEGER NOT NULL DEFAULT 1,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS players (
	player_id             INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name            TEXT NOT NULL,
	last_name             TEXT NOT NULL,
	first_name_key        TEXT NOT NULL,
	last_name_key         TEXT NOT NULL,
	birth_date            DATETIME,
	high_school_name      TEXT NOT NULL DEFAULT '',
	high_school_city      TEXT NOT NULL DEFAULT '',
	high_school_state     TEXT NOT NULL DEFAULT '',
	high_school_grad_year INTEGER NOT NULL DEFAULT 0,
	hometown_city         TEXT NOT NULL DEFAULT '',
	hometown_state        TEXT NOT NULL DEFAULT '',
	hometown_country      TEXT NOT NULL DEFAULT '',
	college_name          TEXT NOT NULL DEFAULT '',
	college_grad_year     INTEGER NOT NULL DEFAULT 0,
	profile_image_url     TEXT NOT NULL DEFAULT '',
	bio_last_updated      DATETIME,
	created_at            DATETIME NOT NULL,
	updated_at            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_players_name_key ON players(last_name_key, first_name_key);

CREATE TABLE IF NOT EXISTS player_sources (
	source     TEXT NOT NULL,
	native_id  TEXT NOT NULL,
	player_id  INTEGER NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (source, native_id),
	UNIQUE (source, player_id)
);

CREATE TABLE IF NOT EXISTS player_leagues (
	player_id         INTEGER NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
	league_id         INTEGER NOT NULL REFERENCES leagues(league_id) ON DELETE CASCADE,
	league_player_id  TEXT NOT NULL DEFAULT '',
	is_current_member INTEGER NOT NULL DEFAULT 1,
	created_at        DATETIME NOT NULL,
	PRIMARY KEY (player_id, league_id)
);

CREATE TABLE IF NOT EXISTS tournaments (
	tournament_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	league_id       INTEGER NOT NULL REFERENCES leagues(league_id),
	tournament_name TEXT NOT NULL,
	name_key        TEXT NOT NULL,
	tournament_year INTEGER NOT NULL,
	start_date      DATETIME,
	end_date        DATETIME,
	course_name     TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	country         TEXT NOT NULL DEFAULT '',
	purse_amount    REAL,
	purse_currency  TEXT NOT NULL DEFAULT 'USD',
	par             INTEGER NOT NULL DEFAULT 0,
	total_rounds    INTEGER NOT NULL DEFAULT 4,
	status          TEXT NOT NULL DEFAULT 'scheduled',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL,
	UNIQUE (league_id, name_key, tournament_year)
);

CREATE TABLE IF NOT EXISTS tournament_sources (
	source        TEXT NOT NULL,
	native_id     TEXT NOT NULL,
	tournament_id INTEGER NOT NULL REFERENCES tournaments(tournament_id) ON DELETE CASCADE,
	created_at    DATETIME NOT NULL,
	PRIMARY KEY (source, native_id)
);

CREATE TABLE IF NOT EXISTS tournament_results (
	result_id              INTEGER PRIMARY KEY AUTOINCREMENT,
	tournament_id          INTEGER NOT NULL REFERENCES tournaments(tournament_id) ON DELETE CASCADE,
	player_id              INTEGER NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
	final_position         INTEGER,
	final_position_display TEXT NOT NULL DEFAULT '',
	total_score            INTEGER,
	total_to_par           INTEGER,
	round_scores           TEXT,
	made_cut               INTEGER NOT NULL DEFAULT 0,
	status                 TEXT NOT NULL DEFAULT 'active',
	earnings               REAL,
	created_at             DATETIME NOT NULL,
	updated_at             DATETIME NOT NULL,
	UNIQUE (tournament_id, player_id)
);

CREATE TABLE IF NOT EXISTS field_provenance (
	entity_type TEXT NOT NULL,
	entity_id   INTEGER NOT NULL,
	field_key   TEXT NOT NULL,
	source      TEXT NOT NULL,
	rank        INTEGER NOT NULL,
	updated_at  DATETIME NOT NULL,
	PRIMARY KEY (entity_type, entity_id, field_key)
);

CREATE TABLE IF NOT EXISTS scrape_logs (
	id                TEXT PRIMARY KEY,
	source            TEXT NOT NULL,
	scrape_type       TEXT NOT NULL,
	league_code       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'started',
	records_processed INTEGER NOT NULL DEFAULT 0,
	records_created   INTEGER NOT NULL DEFAULT 0,
	records_updated   INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	started_at        DATETIME NOT NULL,
	completed_at      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_scrape_logs_source ON scrape_logs(source, started_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "store: migrate sqlite")
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Leagues ---

func (s *SQLiteStore) EnsureLeague(ctx context.Context, code, name string) (*model.League, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leagues (league_code, league_name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (league_code) DO UPDATE SET league_name = excluded.league_name, updated_at = excluded.updated_at`,
		code, name, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: ensure league %s", code)
	}
	return s.GetLeague(ctx, code)
}

func (s *SQLiteStore) GetLeague(ctx context.Context, code string) (*model.League, error) {
	l := &model.League{}
	err := s.db.QueryRowContext(ctx,
		`SELECT league_id, league_code, league_name, website_url, is_active, created_at, updated_at
		 FROM leagues WHERE league_code=?`, code,
	).Scan(&l.ID, &l.Code, &l.Name, &l.WebsiteURL, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get league %s", code)
	}
	return l, nil
}

func (s *SQLiteStore) ListLeagues(ctx context.Context) ([]model.League, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT league_id, league_code, league_name, website_url, is_active, created_at, updated_at
		 FROM leagues ORDER BY league_code`)
	if err != nil {
		return nil, eris.Wrap(err, "store: list leagues")
	}
	defer rows.Close()

	var out []model.League
	for rows.Next() {
		var l model.League
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.WebsiteURL, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan league")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// --- Players ---

const sqlitePlayerColumns = `player_id, first_name, last_name, birth_date,
	high_school_name, high_school_city, high_school_state, high_school_grad_year,
	hometown_city, hometown_state, hometown_country,
	college_name, college_grad_year, profile_image_url,
	bio_last_updated, created_at, updated_at`

func (s *SQLiteStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO players (
			first_name, last_name, first_name_key, last_name_key, birth_date,
			high_school_name, high_school_city, high_school_state, high_school_grad_year,
			hometown_city, hometown_state, hometown_country,
			college_name, college_grad_year, profile_image_url, bio_last_updated,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName,
		normalize.NormalizeName(p.FirstName), normalize.NormalizeName(p.LastName),
		p.BirthDate,
		p.HighSchoolName, p.HighSchoolCity, p.HighSchoolState, p.HighSchoolGradYear,
		p.HometownCity, p.HometownState, p.HometownCountry,
		p.CollegeName, p.CollegeGradYear, p.ProfileImageURL, p.BioLastUpdated,
		now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "store: create player %s %s", p.FirstName, p.LastName)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "store: player insert id")
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdatePlayer(ctx context.Context, p *model.Player) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE players SET
			first_name=?, last_name=?, first_name_key=?, last_name_key=?, birth_date=?,
			high_school_name=?, high_school_city=?, high_school_state=?, high_school_grad_year=?,
			hometown_city=?, hometown_state=?, hometown_country=?,
			college_name=?, college_grad_year=?, profile_image_url=?,
			bio_last_updated=?, updated_at=?
		WHERE player_id=?`,
		p.FirstName, p.LastName,
		normalize.NormalizeName(p.FirstName), normalize.NormalizeName(p.LastName),
		p.BirthDate,
		p.HighSchoolName, p.HighSchoolCity, p.HighSchoolState, p.HighSchoolGradYear,
		p.HometownCity, p.HometownState, p.HometownCountry,
		p.CollegeName, p.CollegeGradYear, p.ProfileImageURL,
		p.BioLastUpdated, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update player %d", p.ID)
	}
	return nil
}

func (s *SQLiteStore) scanPlayerRow(row *sql.Row) (*model.Player, error) {
	p := &model.Player{}
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.BirthDate,
		&p.HighSchoolName, &p.HighSchoolCity, &p.HighSchoolState, &p.HighSchoolGradYear,
		&p.HometownCity, &p.HometownState, &p.HometownCountry,
		&p.CollegeName, &p.CollegeGradYear, &p.ProfileImageURL,
		&p.BioLastUpdated, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) GetPlayer(ctx context.Context, id int64) (*model.Player, error) {
	p, err := s.scanPlayerRow(s.db.QueryRowContext(ctx,
		`SELECT `+sqlitePlayerColumns+` FROM players WHERE player_id=?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get player %d", id)
	}
	return p, nil
}

func (s *SQLiteStore) GetPlayerBySource(ctx context.Context, source, nativeID string) (*model.Player, error) {
	p, err := s.scanPlayerRow(s.db.QueryRowContext(ctx, `
		SELECT `+sqlitePlayerColumns+`
		FROM players
		WHERE player_id = (
			SELECT player_id FROM player_sources WHERE source=? AND native_id=?)`,
		source, nativeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get player by source %s/%s", source, nativeID)
	}
	return p, nil
}

func (s *SQLiteStore) queryPlayers(ctx context.Context, query string, args ...any) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.BirthDate,
			&p.HighSchoolName, &p.HighSchoolCity, &p.HighSchoolState, &p.HighSchoolGradYear,
			&p.HometownCity, &p.HometownState, &p.HometownCountry,
			&p.CollegeName, &p.CollegeGradYear, &p.ProfileImageURL,
			&p.BioLastUpdated, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindPlayersByNameKey(ctx context.Context, firstKey, lastKey string) ([]model.Player, error) {
	players, err := s.queryPlayers(ctx,
		`SELECT `+sqlitePlayerColumns+` FROM players WHERE first_name_key=? AND last_name_key=? ORDER BY player_id`,
		firstKey, lastKey)
	if err != nil {
		return nil, eris.Wrapf(err, "store: find players %s %s", firstKey, lastKey)
	}
	return players, nil
}

func (s *SQLiteStore) BindPlayerSource(ctx context.Context, playerID int64, b model.SourceBinding) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_sources (source, native_id, player_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source, native_id) DO NOTHING`,
		b.Source, b.NativeID, playerID, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "store: bind player %d to %s/%s", playerID, b.Source, b.NativeID)
	}
	return nil
}

func (s *SQLiteStore) LinkPlayerLeague(ctx context.Context, playerID, leagueID int64, leaguePlayerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_leagues (player_id, league_id, league_player_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id, league_id) DO UPDATE
		SET league_player_id = excluded.league_player_id, is_current_member = 1`,
		playerID, leagueID, leaguePlayerID, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "store: link player %d to league %d", playerID, leagueID)
	}
	return nil
}

func (s *SQLiteStore) ListPlayersMissingBio(ctx context.Context, limit int) ([]model.Player, error) {
	if limit <= 0 {
		limit = 50
	}
	players, err := s.queryPlayers(ctx, `
		SELECT `+sqlitePlayerColumns+`
		FROM players
		WHERE high_school_name = ''
		   OR high_school_grad_year = 0
		   OR hometown_city = ''
		   OR college_name = ''
		ORDER BY bio_last_updated IS NOT NULL, bio_last_updated, player_id
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list players missing bio")
	}
	return players, nil
}

func (s *SQLiteStore) SearchPlayers(ctx context.Context, f PlayerFilter) ([]model.Player, error) {
	query := `SELECT ` + sqlitePlayerColumns + ` FROM players WHERE 1=1`
	args := []any{}

	if f.HighSchool != "" {
		query += ` AND high_school_name LIKE ?`
		args = append(args, "%"+f.HighSchool+"%")
	}
	if f.HometownCity != "" {
		query += ` AND hometown_city LIKE ?`
		args = append(args, "%"+f.HometownCity+"%")
	}
	if f.HometownState != "" {
		query += ` AND hometown_state LIKE ?`
		args = append(args, f.HometownState)
	}
	if f.College != "" {
		query += ` AND college_name LIKE ?`
		args = append(args, "%"+f.College+"%")
	}
	if f.League != "" {
		query += ` AND player_id IN (
			SELECT player_id FROM player_leagues
			JOIN leagues USING (league_id)
			WHERE league_code = ?)`
		args = append(args, f.League)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY last_name, first_name LIMIT ?`
	args = append(args, limit)
	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	players, err := s.queryPlayers(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: search players")
	}
	return players, nil
}

// --- Provenance ---

func (s *SQLiteStore) GetProvenance(ctx context.Context, entityType string, entityID int64) (map[string]model.Provenance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_type, entity_id, field_key, source, rank, updated_at
		FROM field_provenance
		WHERE entity_type=? AND entity_id=?`,
		entityType, entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: get provenance %s/%d", entityType, entityID)
	}
	defer rows.Close()

	out := make(map[string]model.Provenance)
	for rows.Next() {
		var p model.Provenance
		if err := rows.Scan(&p.EntityType, &p.EntityID, &p.FieldKey, &p.Source, &p.Rank, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan provenance")
		}
		out[p.FieldKey] = p
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetProvenance(ctx context.Context, p model.Provenance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_provenance (entity_type, entity_id, field_key, source, rank, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id, field_key) DO UPDATE
		SET source = excluded.source, rank = excluded.rank, updated_at = excluded.updated_at`,
		p.EntityType, p.EntityID, p.FieldKey, p.Source, p.Rank, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "store: set provenance %s/%d/%s", p.EntityType, p.EntityID, p.FieldKey)
	}
	return nil
}

// --- Tournaments ---

const sqliteTournamentColumns = `t.tournament_id, t.league_id, l.league_code, t.tournament_name, t.tournament_year,
	t.start_date, t.end_date, t.course_name, t.city, t.state, t.country,
	t.purse_amount, t.purse_currency, t.par, t.total_rounds, t.status, t.created_at, t.updated_at`

const sqliteTournamentFrom = ` FROM tournaments t JOIN leagues l USING (league_id) `

func (s *SQLiteStore) CreateTournament(ctx context.Context, t *model.Tournament) error {
	now := time.Now().UTC()
	totalRounds := t.TotalRounds
	if totalRounds == 0 {
		totalRounds = 4
	}
	status := t.Status
	if status == "" {
		status = model.TournamentScheduled
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tournaments (
			league_id, tournament_name, name_key, tournament_year,
			start_date, end_date, course_name, city, state, country,
			purse_amount, par, total_rounds, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.LeagueID, t.Name, normalize.NormalizeName(t.Name), t.Year,
		t.StartDate, t.EndDate, t.CourseName, t.City, t.State, t.Country,
		t.Purse, t.Par, totalRounds, status, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "store: create tournament %s %d", t.Name, t.Year)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "store: tournament insert id")
	}
	t.ID = id
	t.TotalRounds = totalRounds
	t.Status = status
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateTournament(ctx context.Context, t *model.Tournament) error {
	t.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE tournaments SET
			tournament_name=?, name_key=?, tournament_year=?,
			start_date=?, end_date=?, course_name=?, city=?, state=?, country=?,
			purse_amount=?, par=?, total_rounds=?, status=?, updated_at=?
		WHERE tournament_id=?`,
		t.Name, normalize.NormalizeName(t.Name), t.Year,
		t.StartDate, t.EndDate, t.CourseName, t.City, t.State, t.Country,
		t.Purse, t.Par, t.TotalRounds, t.Status, t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update tournament %d", t.ID)
	}
	return nil
}

func (s *SQLiteStore) scanTournamentRow(row *sql.Row) (*model.Tournament, error) {
	t := &model.Tournament{}
	err := row.Scan(
		&t.ID, &t.LeagueID, &t.League, &t.Name, &t.Year,
		&t.StartDate, &t.EndDate, &t.CourseName, &t.City, &t.State, &t.Country,
		&t.Purse, &t.PurseCurrency, &t.Par, &t.TotalRounds, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLiteStore) GetTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	t, err := s.scanTournamentRow(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteTournamentColumns+sqliteTournamentFrom+`WHERE t.tournament_id=?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get tournament %d", id)
	}
	return t, nil
}

func (s *SQLiteStore) GetTournamentByKey(ctx context.Context, leagueID int64, nameKey string, year int) (*model.Tournament, error) {
	t, err := s.scanTournamentRow(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteTournamentColumns+sqliteTournamentFrom+`WHERE t.league_id=? AND t.name_key=? AND t.tournament_year=?`,
		leagueID, nameKey, year))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get tournament %s/%d", nameKey, year)
	}
	return t, nil
}

func (s *SQLiteStore) GetTournamentBySource(ctx context.Context, source, nativeID string) (*model.Tournament, error) {
	t, err := s.scanTournamentRow(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteTournamentColumns+sqliteTournamentFrom+`
		JOIN tournament_sources ts USING (tournament_id)
		WHERE ts.source=? AND ts.native_id=?`,
		source, nativeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get tournament by source %s/%s", source, nativeID)
	}
	return t, nil
}

func (s *SQLiteStore) BindTournamentSource(ctx context.Context, tournamentID int64, b model.SourceBinding) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tournament_sources (source, native_id, tournament_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source, native_id) DO NOTHING`,
		b.Source, b.NativeID, tournamentID, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "store: bind tournament %d to %s/%s", tournamentID, b.Source, b.NativeID)
	}
	return nil
}

func (s *SQLiteStore) GetTournamentBinding(ctx context.Context, tournamentID int64, source string) (string, error) {
	var nativeID string
	err := s.db.QueryRowContext(ctx, `
		SELECT native_id FROM tournament_sources
		WHERE tournament_id=? AND source=?`,
		tournamentID, source,
	).Scan(&nativeID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "store: get tournament %d binding for %s", tournamentID, source)
	}
	return nativeID, nil
}

func (s *SQLiteStore) ListTournaments(ctx context.Context, f TournamentFilter) ([]model.Tournament, error) {
	query := `SELECT ` + sqliteTournamentColumns + sqliteTournamentFrom + `WHERE 1=1`
	args := []any{}
	if f.League != "" {
		query += ` AND l.league_code = ?`
		args = append(args, f.League)
	}
	if f.Year != 0 {
		query += ` AND t.tournament_year = ?`
		args = append(args, f.Year)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	query += ` ORDER BY t.start_date IS NULL, t.start_date, t.tournament_id LIMIT ?`
	args = append(args, limit)
	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list tournaments")
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		var t model.Tournament
		if err := rows.Scan(
			&t.ID, &t.LeagueID, &t.League, &t.Name, &t.Year,
			&t.StartDate, &t.EndDate, &t.CourseName, &t.City, &t.State, &t.Country,
			&t.Purse, &t.PurseCurrency, &t.Par, &t.TotalRounds, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan tournament")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- Results ---

const sqliteResultColumns = `result_id, tournament_id, player_id, final_position, final_position_display,
	total_score, total_to_par, round_scores, made_cut, status, earnings, created_at, updated_at`

func scanSQLiteResult(scan func(dest ...any) error) (*model.TournamentResult, error) {
	r := &model.TournamentResult{}
	var rounds sql.NullString
	err := scan(
		&r.ID, &r.TournamentID, &r.PlayerID, &r.FinalPosition, &r.PositionDisplay,
		&r.TotalScore, &r.TotalToPar, &rounds, &r.MadeCut, &r.Status, &r.Earnings,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rounds.Valid && rounds.String != "" {
		if err := json.Unmarshal([]byte(rounds.String), &r.RoundScores); err != nil {
			return nil, eris.Wrap(err, "store: decode round scores")
		}
	}
	return r, nil
}

func encodeRoundsText(scores []*int) (any, error) {
	if scores == nil {
		return nil, nil
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode round scores")
	}
	return string(data), nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, tournamentID, playerID int64) (*model.TournamentResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteResultColumns+` FROM tournament_results WHERE tournament_id=? AND player_id=?`,
		tournamentID, playerID)
	r, err := scanSQLiteResult(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get result %d/%d", tournamentID, playerID)
	}
	return r, nil
}

func (s *SQLiteStore) CreateResult(ctx context.Context, r *model.TournamentResult) error {
	rounds, err := encodeRoundsText(r.RoundScores)
	if err != nil {
		return err
	}
	status := r.Status
	if status == "" {
		status = model.ResultActive
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tournament_results (
			tournament_id, player_id, final_position, final_position_display,
			total_score, total_to_par, round_scores, made_cut, status, earnings,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TournamentID, r.PlayerID, r.FinalPosition, r.PositionDisplay,
		r.TotalScore, r.TotalToPar, rounds, r.MadeCut, status, r.Earnings,
		now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "store: create result %d/%d", r.TournamentID, r.PlayerID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "store: result insert id")
	}
	r.ID = id
	r.Status = status
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateResult(ctx context.Context, r *model.TournamentResult) error {
	rounds, err := encodeRoundsText(r.RoundScores)
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE tournament_results SET
			final_position=?, final_position_display=?, total_score=?, total_to_par=?,
			round_scores=?, made_cut=?, status=?, earnings=?, updated_at=?
		WHERE result_id=?`,
		r.FinalPosition, r.PositionDisplay, r.TotalScore, r.TotalToPar,
		rounds, r.MadeCut, r.Status, r.Earnings, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update result %d", r.ID)
	}
	return nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, tournamentID int64) ([]model.TournamentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteResultColumns+` FROM tournament_results WHERE tournament_id=?
		 ORDER BY final_position IS NULL, final_position, player_id`,
		tournamentID)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list results %d", tournamentID)
	}
	defer rows.Close()

	var out []model.TournamentResult
	for rows.Next() {
		r, err := scanSQLiteResult(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan result")
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// --- Scrape ledger ---

func (s *SQLiteStore) CreateScrapeRun(ctx context.Context, run *model.ScrapeRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = model.RunStarted
	run.StartedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_logs (id, source, scrape_type, league_code, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.ScrapeType, run.League, run.Status, run.StartedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "store: create scrape run %s/%s", run.Source, run.ScrapeType)
	}
	return nil
}

func (s *SQLiteStore) CompleteScrapeRun(ctx context.Context, run *model.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scrape_logs SET
			status=?, records_processed=?, records_created=?, records_updated=?,
			error_message=?, completed_at=?
		WHERE id=? AND status='started'`,
		run.Status, run.RecordsProcessed, run.RecordsCreated, run.RecordsUpdated,
		run.ErrorMessage, time.Now().UTC(),
		run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: complete scrape run %s", run.ID)
	}
	return nil
}

func (s *SQLiteStore) GetScrapeRun(ctx context.Context, id string) (*model.ScrapeRun, error) {
	r := &model.ScrapeRun{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, scrape_type, league_code, status,
			records_processed, records_created, records_updated, error_message, started_at, completed_at
		FROM scrape_logs WHERE id=?`, id,
	).Scan(
		&r.ID, &r.Source, &r.ScrapeType, &r.League, &r.Status,
		&r.RecordsProcessed, &r.RecordsCreated, &r.RecordsUpdated,
		&r.ErrorMessage, &r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get scrape run %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListScrapeRuns(ctx context.Context, f RunFilter) ([]model.ScrapeRun, error) {
	query := `
		SELECT id, source, scrape_type, league_code, status,
			records_processed, records_created, records_updated, error_message, started_at, completed_at
		FROM scrape_logs WHERE 1=1`
	args := []any{}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.League != "" {
		query += ` AND league_code = ?`
		args = append(args, f.League)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)
	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list scrape runs")
	}
	defer rows.Close()

	var out []model.ScrapeRun
	for rows.Next() {
		var r model.ScrapeRun
		if err := rows.Scan(
			&r.ID, &r.Source, &r.ScrapeType, &r.League, &r.Status,
			&r.RecordsProcessed, &r.RecordsCreated, &r.RecordsUpdated,
			&r.ErrorMessage, &r.StartedAt, &r.CompletedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan scrape run")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ScrapeRunStats(ctx context.Context) ([]RunStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source,
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS succeeded,
			SUM(CASE WHEN status = 'partial' THEN 1 ELSE 0 END) AS partial,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failed,
			COALESCE(SUM(records_processed), 0) AS processed,
			COALESCE(SUM(records_created), 0) AS created,
			COALESCE(SUM(records_updated), 0) AS updated
		FROM scrape_logs
		GROUP BY source
		ORDER BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "store: scrape run stats")
	}
	defer rows.Close()

	var out []RunStats
	for rows.Next() {
		var st RunStats
		if err := rows.Scan(&st.Source, &st.Total, &st.Succeeded, &st.Partial, &st.Failed,
			&st.Processed, &st.Created, &st.Updated); err != nil {
			return nil, eris.Wrap(err, "store: scan run stats")
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
