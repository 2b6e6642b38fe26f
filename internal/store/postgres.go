package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/db"
	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/normalize"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore on an existing pool.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leagues (
	league_id    BIGSERIAL PRIMARY KEY,
	league_code  TEXT NOT NULL UNIQUE,
	league_name  TEXT NOT NULL,
	website_url  TEXT NOT NULL DEFAULT '',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS players (
	player_id             BIGSERIAL PRIMARY KEY,
	first_name            TEXT NOT NULL,
	last_name             TEXT NOT NULL,
	first_name_key        TEXT NOT NULL,
	last_name_key         TEXT NOT NULL,
	birth_date            DATE,
	high_school_name      TEXT NOT NULL DEFAULT '',
	high_school_city      TEXT NOT NULL DEFAULT '',
	high_school_state     TEXT NOT NULL DEFAULT '',
	high_school_grad_year INT NOT NULL DEFAULT 0,
	hometown_city         TEXT NOT NULL DEFAULT '',
	hometown_state        TEXT NOT NULL DEFAULT '',
	hometown_country      TEXT NOT NULL DEFAULT '',
	college_name          TEXT NOT NULL DEFAULT '',
	college_grad_year     INT NOT NULL DEFAULT 0,
	profile_image_url     TEXT NOT NULL DEFAULT '',
	bio_last_updated      TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_players_name_key ON players(last_name_key, first_name_key);
CREATE INDEX IF NOT EXISTS idx_players_high_school ON players(high_school_state, high_school_city);
CREATE INDEX IF NOT EXISTS idx_players_hometown ON players(hometown_state, hometown_city);

CREATE TABLE IF NOT EXISTS player_sources (
	source     TEXT NOT NULL,
	native_id  TEXT NOT NULL,
	player_id  BIGINT NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, native_id),
	UNIQUE (source, player_id)
);

CREATE TABLE IF NOT EXISTS player_leagues (
	player_id         BIGINT NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
	league_id         BIGINT NOT NULL REFERENCES leagues(league_id) ON DELETE CASCADE,
	league_player_id  TEXT NOT NULL DEFAULT '',
	is_current_member BOOLEAN NOT NULL DEFAULT TRUE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (player_id, league_id)
);

CREATE TABLE IF NOT EXISTS tournaments (
	tournament_id   BIGSERIAL PRIMARY KEY,
	league_id       BIGINT NOT NULL REFERENCES leagues(league_id),
	tournament_name TEXT NOT NULL,
	name_key        TEXT NOT NULL,
	tournament_year INT NOT NULL,
	start_date      DATE,
	end_date        DATE,
	course_name     TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	country         TEXT NOT NULL DEFAULT '',
	purse_amount    NUMERIC,
	purse_currency  TEXT NOT NULL DEFAULT 'USD',
	par             INT NOT NULL DEFAULT 0,
	total_rounds    INT NOT NULL DEFAULT 4,
	status          TEXT NOT NULL DEFAULT 'scheduled',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (league_id, name_key, tournament_year)
);

CREATE TABLE IF NOT EXISTS tournament_sources (
	source        TEXT NOT NULL,
	native_id     TEXT NOT NULL,
	tournament_id BIGINT NOT NULL REFERENCES tournaments(tournament_id) ON DELETE CASCADE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, native_id)
);

CREATE TABLE IF NOT EXISTS tournament_results (
	result_id              BIGSERIAL PRIMARY KEY,
	tournament_id          BIGINT NOT NULL REFERENCES tournaments(tournament_id) ON DELETE CASCADE,
	player_id              BIGINT NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
	final_position         INT,
	final_position_display TEXT NOT NULL DEFAULT '',
	total_score            INT,
	total_to_par           INT,
	round_scores           JSONB,
	made_cut               BOOLEAN NOT NULL DEFAULT FALSE,
	status                 TEXT NOT NULL DEFAULT 'active',
	earnings               NUMERIC,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tournament_id, player_id)
);

CREATE TABLE IF NOT EXISTS field_provenance (
	entity_type TEXT NOT NULL,
	entity_id   BIGINT NOT NULL,
	field_key   TEXT NOT NULL,
	source      TEXT NOT NULL,
	rank        INT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (entity_type, entity_id, field_key)
);

CREATE TABLE IF NOT EXISTS scrape_logs (
	id                UUID PRIMARY KEY,
	source            TEXT NOT NULL,
	scrape_type       TEXT NOT NULL,
	league_code       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'started',
	records_processed INT NOT NULL DEFAULT 0,
	records_created   INT NOT NULL DEFAULT 0,
	records_updated   INT NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scrape_logs_source ON scrape_logs(source, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_scrape_logs_status ON scrape_logs(status);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "store: migrate postgres")
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Leagues ---

const leagueColumns = `league_id, league_code, league_name, website_url, is_active, created_at, updated_at`

func leagueDests(l *model.League) []any {
	return []any{&l.ID, &l.Code, &l.Name, &l.WebsiteURL, &l.IsActive, &l.CreatedAt, &l.UpdatedAt}
}

// EnsureLeague creates the league row if absent and returns it either way.
func (s *PostgresStore) EnsureLeague(ctx context.Context, code, name string) (*model.League, error) {
	l := &model.League{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO leagues (league_code, league_name)
		VALUES ($1, $2)
		ON CONFLICT (league_code) DO UPDATE SET league_name = EXCLUDED.league_name, updated_at = now()
		RETURNING `+leagueColumns,
		code, name,
	).Scan(leagueDests(l)...)
	if err != nil {
		return nil, eris.Wrapf(err, "store: ensure league %s", code)
	}
	return l, nil
}

// GetLeague fetches a league by code.
func (s *PostgresStore) GetLeague(ctx context.Context, code string) (*model.League, error) {
	l := &model.League{}
	err := s.pool.QueryRow(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE league_code=$1`, code).
		Scan(leagueDests(l)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get league %s", code)
	}
	return l, nil
}

// ListLeagues returns all leagues ordered by code.
func (s *PostgresStore) ListLeagues(ctx context.Context) ([]model.League, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+leagueColumns+` FROM leagues ORDER BY league_code`)
	if err != nil {
		return nil, eris.Wrap(err, "store: list leagues")
	}
	defer rows.Close()

	var out []model.League
	for rows.Next() {
		var l model.League
		if err := rows.Scan(leagueDests(&l)...); err != nil {
			return nil, eris.Wrap(err, "store: scan league")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// --- Players ---

const playerColumns = `player_id, first_name, last_name, birth_date,
	high_school_name, high_school_city, high_school_state, high_school_grad_year,
	hometown_city, hometown_state, hometown_country,
	college_name, college_grad_year, profile_image_url,
	bio_last_updated, created_at, updated_at`

func playerDests(p *model.Player) []any {
	return []any{
		&p.ID, &p.FirstName, &p.LastName, &p.BirthDate,
		&p.HighSchoolName, &p.HighSchoolCity, &p.HighSchoolState, &p.HighSchoolGradYear,
		&p.HometownCity, &p.HometownState, &p.HometownCountry,
		&p.CollegeName, &p.CollegeGradYear, &p.ProfileImageURL,
		&p.BioLastUpdated, &p.CreatedAt, &p.UpdatedAt,
	}
}

// CreatePlayer inserts a new player and sets its ID. Name key columns are
// derived here so every row is matchable regardless of which code path
// created it.
func (s *PostgresStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO players (
			first_name, last_name, first_name_key, last_name_key, birth_date,
			high_school_name, high_school_city, high_school_state, high_school_grad_year,
			hometown_city, hometown_state, hometown_country,
			college_name, college_grad_year, profile_image_url, bio_last_updated
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16
		) RETURNING player_id, created_at, updated_at`,
		p.FirstName, p.LastName,
		normalize.NormalizeName(p.FirstName), normalize.NormalizeName(p.LastName),
		p.BirthDate,
		p.HighSchoolName, p.HighSchoolCity, p.HighSchoolState, p.HighSchoolGradYear,
		p.HometownCity, p.HometownState, p.HometownCountry,
		p.CollegeName, p.CollegeGradYear, p.ProfileImageURL, p.BioLastUpdated,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return eris.Wrapf(err, "store: create player %s %s", p.FirstName, p.LastName)
	}
	return nil
}

// UpdatePlayer rewrites an existing player row.
func (s *PostgresStore) UpdatePlayer(ctx context.Context, p *model.Player) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		UPDATE players SET
			first_name=$2, last_name=$3, first_name_key=$4, last_name_key=$5, birth_date=$6,
			high_school_name=$7, high_school_city=$8, high_school_state=$9, high_school_grad_year=$10,
			hometown_city=$11, hometown_state=$12, hometown_country=$13,
			college_name=$14, college_grad_year=$15, profile_image_url=$16,
			bio_last_updated=$17, updated_at=now()
		WHERE player_id=$1`,
		p.ID,
		p.FirstName, p.LastName,
		normalize.NormalizeName(p.FirstName), normalize.NormalizeName(p.LastName),
		p.BirthDate,
		p.HighSchoolName, p.HighSchoolCity, p.HighSchoolState, p.HighSchoolGradYear,
		p.HometownCity, p.HometownState, p.HometownCountry,
		p.CollegeName, p.CollegeGradYear, p.ProfileImageURL,
		p.BioLastUpdated,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update player %d", p.ID)
	}
	return nil
}

// GetPlayer fetches a player by ID.
func (s *PostgresStore) GetPlayer(ctx context.Context, id int64) (*model.Player, error) {
	p := &model.Player{}
	err := s.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE player_id=$1`, id).
		Scan(playerDests(p)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get player %d", id)
	}
	return p, nil
}

// GetPlayerBySource resolves a source's native ID to its bound player.
func (s *PostgresStore) GetPlayerBySource(ctx context.Context, source, nativeID string) (*model.Player, error) {
	p := &model.Player{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE player_id = (
			SELECT player_id FROM player_sources WHERE source=$1 AND native_id=$2)`,
		source, nativeID,
	).Scan(playerDests(p)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get player by source %s/%s", source, nativeID)
	}
	return p, nil
}

// FindPlayersByNameKey returns players whose normalized name matches.
func (s *PostgresStore) FindPlayersByNameKey(ctx context.Context, firstKey, lastKey string) ([]model.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE first_name_key=$1 AND last_name_key=$2
		ORDER BY player_id`,
		firstKey, lastKey,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: find players %s %s", firstKey, lastKey)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// BindPlayerSource records the source's native ID for a player. Rebinding
// the same pair is a no-op; binding an already-claimed native ID to another
// player is a constraint violation and surfaces as an error.
func (s *PostgresStore) BindPlayerSource(ctx context.Context, playerID int64, b model.SourceBinding) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO player_sources (source, native_id, player_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, native_id) DO NOTHING`,
		b.Source, b.NativeID, playerID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: bind player %d to %s/%s", playerID, b.Source, b.NativeID)
	}
	return nil
}

// LinkPlayerLeague records league membership, updating the league's own
// player id when it changes.
func (s *PostgresStore) LinkPlayerLeague(ctx context.Context, playerID, leagueID int64, leaguePlayerID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO player_leagues (player_id, league_id, league_player_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, league_id) DO UPDATE
		SET league_player_id = EXCLUDED.league_player_id, is_current_member = TRUE`,
		playerID, leagueID, leaguePlayerID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: link player %d to league %d", playerID, leagueID)
	}
	return nil
}

// ListPlayersMissingBio returns players with at least one unfilled
// biographical checklist field, oldest-enriched first.
func (s *PostgresStore) ListPlayersMissingBio(ctx context.Context, limit int) ([]model.Player, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE high_school_name = ''
		   OR high_school_grad_year = 0
		   OR hometown_city = ''
		   OR college_name = ''
		ORDER BY bio_last_updated ASC NULLS FIRST, player_id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list players missing bio")
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// SearchPlayers filters players by biography fields for the read API.
func (s *PostgresStore) SearchPlayers(ctx context.Context, f PlayerFilter) ([]model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, val any) {
		n++
		args = append(args, val)
		query += " AND " + clause + "$" + strconv.Itoa(n)
	}

	if f.HighSchool != "" {
		add("high_school_name ILIKE ", "%"+f.HighSchool+"%")
	}
	if f.HometownCity != "" {
		add("hometown_city ILIKE ", "%"+f.HometownCity+"%")
	}
	if f.HometownState != "" {
		add("hometown_state ILIKE ", f.HometownState)
	}
	if f.College != "" {
		add("college_name ILIKE ", "%"+f.College+"%")
	}
	if f.League != "" {
		n++
		args = append(args, f.League)
		query += ` AND player_id IN (
			SELECT player_id FROM player_leagues
			JOIN leagues USING (league_id)
			WHERE league_code = $` + strconv.Itoa(n) + `)`
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	args = append(args, limit)
	query += " ORDER BY last_name, first_name LIMIT $" + strconv.Itoa(n)
	if f.Offset > 0 {
		n++
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(n)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: search players")
	}
	defer rows.Close()

	return scanPlayers(rows)
}

func scanPlayers(rows pgx.Rows) ([]model.Player, error) {
	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(playerDests(&p)...); err != nil {
			return nil, eris.Wrap(err, "store: scan player")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Provenance ---

// GetProvenance loads every tracked field for one entity.
func (s *PostgresStore) GetProvenance(ctx context.Context, entityType string, entityID int64) (map[string]model.Provenance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_type, entity_id, field_key, source, rank, updated_at
		FROM field_provenance
		WHERE entity_type=$1 AND entity_id=$2`,
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

// SetProvenance upserts one field's provenance row.
func (s *PostgresStore) SetProvenance(ctx context.Context, p model.Provenance) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO field_provenance (entity_type, entity_id, field_key, source, rank, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (entity_type, entity_id, field_key) DO UPDATE
		SET source = EXCLUDED.source, rank = EXCLUDED.rank, updated_at = now()`,
		p.EntityType, p.EntityID, p.FieldKey, p.Source, p.Rank,
	)
	if err != nil {
		return eris.Wrapf(err, "store: set provenance %s/%d/%s", p.EntityType, p.EntityID, p.FieldKey)
	}
	return nil
}

// --- Tournaments ---

const tournamentColumns = `t.tournament_id, t.league_id, l.league_code, t.tournament_name, t.tournament_year,
	t.start_date, t.end_date, t.course_name, t.city, t.state, t.country,
	t.purse_amount, t.purse_currency, t.par, t.total_rounds, t.status, t.created_at, t.updated_at`

const tournamentFrom = ` FROM tournaments t JOIN leagues l USING (league_id) `

func tournamentDests(t *model.Tournament) []any {
	return []any{
		&t.ID, &t.LeagueID, &t.League, &t.Name, &t.Year,
		&t.StartDate, &t.EndDate, &t.CourseName, &t.City, &t.State, &t.Country,
		&t.Purse, &t.PurseCurrency, &t.Par, &t.TotalRounds, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	}
}

// CreateTournament inserts a new tournament and sets its ID.
func (s *PostgresStore) CreateTournament(ctx context.Context, t *model.Tournament) error {
	totalRounds := t.TotalRounds
	if totalRounds == 0 {
		totalRounds = 4
	}
	status := t.Status
	if status == "" {
		status = model.TournamentScheduled
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tournaments (
			league_id, tournament_name, name_key, tournament_year,
			start_date, end_date, course_name, city, state, country,
			purse_amount, par, total_rounds, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING tournament_id, created_at, updated_at`,
		t.LeagueID, t.Name, normalize.NormalizeName(t.Name), t.Year,
		t.StartDate, t.EndDate, t.CourseName, t.City, t.State, t.Country,
		t.Purse, t.Par, totalRounds, status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return eris.Wrapf(err, "store: create tournament %s %d", t.Name, t.Year)
	}
	t.TotalRounds = totalRounds
	t.Status = status
	return nil
}

// UpdateTournament rewrites an existing tournament row.
func (s *PostgresStore) UpdateTournament(ctx context.Context, t *model.Tournament) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tournaments SET
			tournament_name=$2, name_key=$3, tournament_year=$4,
			start_date=$5, end_date=$6, course_name=$7, city=$8, state=$9, country=$10,
			purse_amount=$11, par=$12, total_rounds=$13, status=$14, updated_at=now()
		WHERE tournament_id=$1`,
		t.ID,
		t.Name, normalize.NormalizeName(t.Name), t.Year,
		t.StartDate, t.EndDate, t.CourseName, t.City, t.State, t.Country,
		t.Purse, t.Par, t.TotalRounds, t.Status,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update tournament %d", t.ID)
	}
	return nil
}

// GetTournament fetches a tournament by ID.
func (s *PostgresStore) GetTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	t := &model.Tournament{}
	err := s.pool.QueryRow(ctx, `SELECT `+tournamentColumns+tournamentFrom+`WHERE t.tournament_id=$1`, id).
		Scan(tournamentDests(t)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get tournament %d", id)
	}
	return t, nil
}

// GetTournamentByKey fetches a tournament by its uniqueness key.
func (s *PostgresStore) GetTournamentByKey(ctx context.Context, leagueID int64, nameKey string, year int) (*model.Tournament, error) {
	t := &model.Tournament{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+tournamentColumns+tournamentFrom+`WHERE t.league_id=$1 AND t.name_key=$2 AND t.tournament_year=$3`,
		leagueID, nameKey, year,
	).Scan(tournamentDests(t)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get tournament %s/%d", nameKey, year)
	}
	return t, nil
}

// GetTournamentBySource resolves a source's native event ID.
func (s *PostgresStore) GetTournamentBySource(ctx context.Context, source, nativeID string) (*model.Tournament, error) {
	t := &model.Tournament{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+tournamentColumns+tournamentFrom+`
		JOIN tournament_sources ts USING (tournament_id)
		WHERE ts.source=$1 AND ts.native_id=$2`,
		source, nativeID,
	).Scan(tournamentDests(t)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get tournament by source %s/%s", source, nativeID)
	}
	return t, nil
}

// BindTournamentSource records the source's native ID for a tournament.
func (s *PostgresStore) BindTournamentSource(ctx context.Context, tournamentID int64, b model.SourceBinding) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tournament_sources (source, native_id, tournament_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, native_id) DO NOTHING`,
		b.Source, b.NativeID, tournamentID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: bind tournament %d to %s/%s", tournamentID, b.Source, b.NativeID)
	}
	return nil
}

// GetTournamentBinding returns the tournament's native id in the given
// source's id space, or "" when the source has never seen it.
func (s *PostgresStore) GetTournamentBinding(ctx context.Context, tournamentID int64, source string) (string, error) {
	var nativeID string
	err := s.pool.QueryRow(ctx, `
		SELECT native_id FROM tournament_sources
		WHERE tournament_id=$1 AND source=$2`,
		tournamentID, source,
	).Scan(&nativeID)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "store: get tournament %d binding for %s", tournamentID, source)
	}
	return nativeID, nil
}

// ListTournaments filters tournaments by league and year.
func (s *PostgresStore) ListTournaments(ctx context.Context, f TournamentFilter) ([]model.Tournament, error) {
	query := `SELECT ` + tournamentColumns + tournamentFrom + `WHERE 1=1`
	args := []any{}
	n := 0
	if f.League != "" {
		n++
		args = append(args, f.League)
		query += ` AND l.league_code = $` + strconv.Itoa(n)
	}
	if f.Year != 0 {
		n++
		args = append(args, f.Year)
		query += ` AND t.tournament_year = $` + strconv.Itoa(n)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	n++
	args = append(args, limit)
	query += ` ORDER BY t.start_date NULLS LAST, t.tournament_id LIMIT $` + strconv.Itoa(n)
	if f.Offset > 0 {
		n++
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(n)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list tournaments")
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		var t model.Tournament
		if err := rows.Scan(tournamentDests(&t)...); err != nil {
			return nil, eris.Wrap(err, "store: scan tournament")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- Results ---

const resultColumns = `result_id, tournament_id, player_id, final_position, final_position_display,
	total_score, total_to_par, round_scores, made_cut, status, earnings, created_at, updated_at`

func scanResult(row pgx.Row) (*model.TournamentResult, error) {
	r := &model.TournamentResult{}
	var rounds []byte
	err := row.Scan(
		&r.ID, &r.TournamentID, &r.PlayerID, &r.FinalPosition, &r.PositionDisplay,
		&r.TotalScore, &r.TotalToPar, &rounds, &r.MadeCut, &r.Status, &r.Earnings,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rounds) > 0 {
		if err := json.Unmarshal(rounds, &r.RoundScores); err != nil {
			return nil, eris.Wrap(err, "store: decode round scores")
		}
	}
	return r, nil
}

func encodeRounds(scores []*int) (any, error) {
	if scores == nil {
		return nil, nil
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode round scores")
	}
	return data, nil
}

// GetResult fetches the result for one (tournament, player) pair.
func (s *PostgresStore) GetResult(ctx context.Context, tournamentID, playerID int64) (*model.TournamentResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM tournament_results WHERE tournament_id=$1 AND player_id=$2`,
		tournamentID, playerID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get result %d/%d", tournamentID, playerID)
	}
	return r, nil
}

// CreateResult inserts a new result row and sets its ID.
func (s *PostgresStore) CreateResult(ctx context.Context, r *model.TournamentResult) error {
	rounds, err := encodeRounds(r.RoundScores)
	if err != nil {
		return err
	}
	status := r.Status
	if status == "" {
		status = model.ResultActive
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO tournament_results (
			tournament_id, player_id, final_position, final_position_display,
			total_score, total_to_par, round_scores, made_cut, status, earnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING result_id, created_at, updated_at`,
		r.TournamentID, r.PlayerID, r.FinalPosition, r.PositionDisplay,
		r.TotalScore, r.TotalToPar, rounds, r.MadeCut, status, r.Earnings,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return eris.Wrapf(err, "store: create result %d/%d", r.TournamentID, r.PlayerID)
	}
	r.Status = status
	return nil
}

// UpdateResult rewrites an existing result row.
func (s *PostgresStore) UpdateResult(ctx context.Context, r *model.TournamentResult) error {
	rounds, err := encodeRounds(r.RoundScores)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE tournament_results SET
			final_position=$2, final_position_display=$3, total_score=$4, total_to_par=$5,
			round_scores=$6, made_cut=$7, status=$8, earnings=$9, updated_at=now()
		WHERE result_id=$1`,
		r.ID,
		r.FinalPosition, r.PositionDisplay, r.TotalScore, r.TotalToPar,
		rounds, r.MadeCut, r.Status, r.Earnings,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update result %d", r.ID)
	}
	return nil
}

// ListResults returns every result for a tournament ordered by position.
func (s *PostgresStore) ListResults(ctx context.Context, tournamentID int64) ([]model.TournamentResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM tournament_results WHERE tournament_id=$1 ORDER BY final_position NULLS LAST, player_id`,
		tournamentID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list results %d", tournamentID)
	}
	defer rows.Close()

	var out []model.TournamentResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan result")
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// --- Scrape ledger ---

const runColumns = `id, source, scrape_type, league_code, status,
	records_processed, records_created, records_updated, error_message, started_at, completed_at`

func runDests(r *model.ScrapeRun) []any {
	return []any{
		&r.ID, &r.Source, &r.ScrapeType, &r.League, &r.Status,
		&r.RecordsProcessed, &r.RecordsCreated, &r.RecordsUpdated,
		&r.ErrorMessage, &r.StartedAt, &r.CompletedAt,
	}
}

// CreateScrapeRun opens a ledger row in the started state, assigning the
// run ID when the caller did not.
func (s *PostgresStore) CreateScrapeRun(ctx context.Context, run *model.ScrapeRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = model.RunStarted
	err := s.pool.QueryRow(ctx, `
		INSERT INTO scrape_logs (id, source, scrape_type, league_code, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING started_at`,
		run.ID, run.Source, run.ScrapeType, run.League, run.Status,
	).Scan(&run.StartedAt)
	if err != nil {
		return eris.Wrapf(err, "store: create scrape run %s/%s", run.Source, run.ScrapeType)
	}
	return nil
}

// CompleteScrapeRun settles a ledger row. Completion is idempotent: a row
// already settled keeps its original terminal state and counters.
func (s *PostgresStore) CompleteScrapeRun(ctx context.Context, run *model.ScrapeRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE scrape_logs SET
			status=$2, records_processed=$3, records_created=$4, records_updated=$5,
			error_message=$6, completed_at=now()
		WHERE id=$1 AND status='started'`,
		run.ID, run.Status, run.RecordsProcessed, run.RecordsCreated, run.RecordsUpdated,
		run.ErrorMessage,
	)
	if err != nil {
		return eris.Wrapf(err, "store: complete scrape run %s", run.ID)
	}
	return nil
}

// GetScrapeRun fetches one ledger row.
func (s *PostgresStore) GetScrapeRun(ctx context.Context, id string) (*model.ScrapeRun, error) {
	r := &model.ScrapeRun{}
	err := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM scrape_logs WHERE id=$1`, id).
		Scan(runDests(r)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get scrape run %s", id)
	}
	return r, nil
}

// ListScrapeRuns returns ledger rows newest first.
func (s *PostgresStore) ListScrapeRuns(ctx context.Context, f RunFilter) ([]model.ScrapeRun, error) {
	query := `SELECT ` + runColumns + ` FROM scrape_logs WHERE 1=1`
	args := []any{}
	n := 0
	if f.Source != "" {
		n++
		args = append(args, f.Source)
		query += ` AND source = $` + strconv.Itoa(n)
	}
	if f.Status != "" {
		n++
		args = append(args, string(f.Status))
		query += ` AND status = $` + strconv.Itoa(n)
	}
	if f.League != "" {
		n++
		args = append(args, f.League)
		query += ` AND league_code = $` + strconv.Itoa(n)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	n++
	args = append(args, limit)
	query += ` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(n)
	if f.Offset > 0 {
		n++
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(n)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list scrape runs")
	}
	defer rows.Close()

	var out []model.ScrapeRun
	for rows.Next() {
		var r model.ScrapeRun
		if err := rows.Scan(runDests(&r)...); err != nil {
			return nil, eris.Wrap(err, "store: scan scrape run")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ScrapeRunStats aggregates the ledger per source.
func (s *PostgresStore) ScrapeRunStats(ctx context.Context) ([]RunStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'success') AS succeeded,
			COUNT(*) FILTER (WHERE status = 'partial') AS partial,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
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
