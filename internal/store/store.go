// Package store provides persistence for the canonical golf entities,
// source identity bindings, field provenance, and the scrape ledger.
package store

import (
	"context"

	"github.com/fairway-media/golftracker/internal/model"
)

// PlayerFilter narrows player queries for the read API.
type PlayerFilter struct {
	HighSchool    string `json:"high_school,omitempty"`
	HometownCity  string `json:"hometown_city,omitempty"`
	HometownState string `json:"hometown_state,omitempty"`
	College       string `json:"college,omitempty"`
	League        string `json:"league,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// TournamentFilter narrows tournament queries.
type TournamentFilter struct {
	League string `json:"league,omitempty"`
	Year   int    `json:"year,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// RunFilter narrows scrape ledger queries.
type RunFilter struct {
	Source string          `json:"source,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	League string          `json:"league,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// RunStats aggregates ledger rows per source for reporting.
type RunStats struct {
	Source    string `json:"source"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Partial   int    `json:"partial"`
	Failed    int    `json:"failed"`
	Processed int    `json:"records_processed"`
	Created   int    `json:"records_created"`
	Updated   int    `json:"records_updated"`
}

// Store defines the persistence interface for the reconciliation pipeline.
type Store interface {
	// Leagues
	EnsureLeague(ctx context.Context, code, name string) (*model.League, error)
	GetLeague(ctx context.Context, code string) (*model.League, error)
	ListLeagues(ctx context.Context) ([]model.League, error)

	// Players. NameKeyFirst/NameKeyLast matching uses the normalized key
	// columns written alongside every insert and update.
	CreatePlayer(ctx context.Context, p *model.Player) error
	UpdatePlayer(ctx context.Context, p *model.Player) error
	GetPlayer(ctx context.Context, id int64) (*model.Player, error)
	GetPlayerBySource(ctx context.Context, source, nativeID string) (*model.Player, error)
	FindPlayersByNameKey(ctx context.Context, firstKey, lastKey string) ([]model.Player, error)
	BindPlayerSource(ctx context.Context, playerID int64, b model.SourceBinding) error
	LinkPlayerLeague(ctx context.Context, playerID, leagueID int64, leaguePlayerID string) error
	ListPlayersMissingBio(ctx context.Context, limit int) ([]model.Player, error)
	SearchPlayers(ctx context.Context, f PlayerFilter) ([]model.Player, error)

	// Field provenance
	GetProvenance(ctx context.Context, entityType string, entityID int64) (map[string]model.Provenance, error)
	SetProvenance(ctx context.Context, p model.Provenance) error

	// Tournaments
	CreateTournament(ctx context.Context, t *model.Tournament) error
	UpdateTournament(ctx context.Context, t *model.Tournament) error
	GetTournament(ctx context.Context, id int64) (*model.Tournament, error)
	GetTournamentByKey(ctx context.Context, leagueID int64, nameKey string, year int) (*model.Tournament, error)
	GetTournamentBySource(ctx context.Context, source, nativeID string) (*model.Tournament, error)
	BindTournamentSource(ctx context.Context, tournamentID int64, b model.SourceBinding) error
	GetTournamentBinding(ctx context.Context, tournamentID int64, source string) (string, error)
	ListTournaments(ctx context.Context, f TournamentFilter) ([]model.Tournament, error)

	// Results
	GetResult(ctx context.Context, tournamentID, playerID int64) (*model.TournamentResult, error)
	CreateResult(ctx context.Context, r *model.TournamentResult) error
	UpdateResult(ctx context.Context, r *model.TournamentResult) error
	ListResults(ctx context.Context, tournamentID int64) ([]model.TournamentResult, error)

	// Scrape ledger
	CreateScrapeRun(ctx context.Context, run *model.ScrapeRun) error
	CompleteScrapeRun(ctx context.Context, run *model.ScrapeRun) error
	GetScrapeRun(ctx context.Context, id string) (*model.ScrapeRun, error)
	ListScrapeRuns(ctx context.Context, f RunFilter) ([]model.ScrapeRun, error)
	ScrapeRunStats(ctx context.Context) ([]RunStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
