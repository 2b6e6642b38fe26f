package source

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/fetcher"
	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
)

// GraphQL documents for the tour orchestrator API. One endpoint serves the
// PGA Tour, Korn Ferry Tour, and PGA Tour Champions, distinguished by tour
// code.
const (
	playerDirectoryQuery = `query PlayerDirectory($tourCode: TourCode!) {
  playerDirectory(tourCode: $tourCode) {
    players { id firstName lastName country headshot }
  }
}`

	scheduleQuery = `query Schedule($tourCode: String!, $year: String!) {
  schedule(tourCode: $tourCode, year: $year) {
    tournaments { id tournamentName startDate endDate courseName city state country purse par roundsCount status }
  }
}`

	leaderboardQuery = `query Leaderboard($tournamentId: ID!) {
  leaderboardV2(id: $tournamentId) {
    players { playerId firstName lastName position total totalStrokes rounds status earnings }
  }
}`
)

// PGATourConnector fetches rosters, schedules, and leaderboards from the
// official tour GraphQL API.
type PGATourConnector struct {
	fetcher  fetcher.Fetcher
	endpoint string
	apiKey   string
}

// NewPGATour creates the official-tour connector.
func NewPGATour(f fetcher.Fetcher, endpoint, apiKey string) *PGATourConnector {
	return &PGATourConnector{fetcher: f, endpoint: endpoint, apiKey: apiKey}
}

// Name implements Connector.
func (c *PGATourConnector) Name() string { return "pgatour" }

// Supports implements Connector. The orchestrator serves every league
// that carries a tour code.
func (c *PGATourConnector) Supports(l league.League) bool {
	return l.TourCode != ""
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data struct {
		PlayerDirectory struct {
			Players []json.RawMessage `json:"players"`
		} `json:"playerDirectory"`
		Schedule struct {
			Tournaments []json.RawMessage `json:"tournaments"`
		} `json:"schedule"`
		LeaderboardV2 struct {
			Players []json.RawMessage `json:"players"`
		} `json:"leaderboardV2"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *PGATourConnector) query(ctx context.Context, doc string, vars map[string]any) (*gqlResponse, error) {
	hdr := http.Header{}
	hdr.Set("X-Api-Key", c.apiKey)

	var resp gqlResponse
	if err := c.fetcher.PostJSON(ctx, c.endpoint, hdr, gqlRequest{Query: doc, Variables: vars}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, eris.Errorf("pgatour: graphql error: %s", resp.Errors[0].Message)
	}
	return &resp, nil
}

// Fetch implements Connector.
func (c *PGATourConnector) Fetch(ctx context.Context, q Query) ([]model.RawRecord, error) {
	if !c.Supports(q.League) {
		return nil, eris.Errorf("pgatour: league %s has no tour code", q.League.Code)
	}

	var nodes []json.RawMessage
	switch q.Kind {
	case model.KindPlayer:
		resp, err := c.query(ctx, playerDirectoryQuery, map[string]any{"tourCode": q.League.TourCode})
		if err != nil {
			return nil, eris.Wrapf(err, "pgatour: fetch roster for %s", q.League.Code)
		}
		nodes = resp.Data.PlayerDirectory.Players

	case model.KindTournament:
		year := q.Year
		if year == 0 {
			year = time.Now().Year()
		}
		resp, err := c.query(ctx, scheduleQuery, map[string]any{
			"tourCode": q.League.TourCode,
			"year":     strconv.Itoa(year),
		})
		if err != nil {
			return nil, eris.Wrapf(err, "pgatour: fetch schedule for %s %d", q.League.Code, year)
		}
		nodes = resp.Data.Schedule.Tournaments

	case model.KindResult:
		if q.TournamentNativeID == "" {
			return nil, eris.New("pgatour: result fetch requires a tournament id")
		}
		resp, err := c.query(ctx, leaderboardQuery, map[string]any{"tournamentId": q.TournamentNativeID})
		if err != nil {
			return nil, eris.Wrapf(err, "pgatour: fetch leaderboard %s", q.TournamentNativeID)
		}
		nodes = resp.Data.LeaderboardV2.Players

	default:
		return nil, eris.Errorf("pgatour: unsupported record kind %q", q.Kind)
	}

	if q.Limit > 0 && len(nodes) > q.Limit {
		nodes = nodes[:q.Limit]
	}

	now := time.Now().UTC()
	records := make([]model.RawRecord, 0, len(nodes))
	for _, node := range nodes {
		records = append(records, model.RawRecord{
			Source:    c.Name(),
			Kind:      q.Kind,
			League:    q.League.Code,
			FetchedAt: now,
			Payload:   node,
		})
	}

	zap.L().Debug("fetched records from tour api",
		zap.String("league", q.League.Code),
		zap.String("kind", string(q.Kind)),
		zap.Int("count", len(records)),
	)
	return records, nil
}
