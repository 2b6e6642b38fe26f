package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/fetcher"
	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
)

// espnLeagueSlugs maps league codes to ESPN's path segments. Leagues not
// listed here are outside ESPN's golf coverage.
var espnLeagueSlugs = map[string]string{
	league.PGA:       "pga",
	league.LPGA:      "lpga",
	league.Champions: "champions-tour",
	league.LIV:       "liv",
	league.DPWorld:   "eur",
}

// ESPNConnector fetches athletes, events and event leaderboards from the
// ESPN site API. It is the secondary roster source and the authoritative
// one for leagues the tour orchestrator doesn't cover.
type ESPNConnector struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// NewESPN creates the ESPN connector.
func NewESPN(f fetcher.Fetcher, baseURL string) *ESPNConnector {
	return &ESPNConnector{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Connector.
func (c *ESPNConnector) Name() string { return "espn" }

// Supports implements Connector.
func (c *ESPNConnector) Supports(l league.League) bool {
	_, ok := espnLeagueSlugs[l.Code]
	return ok
}

type espnAthletesResponse struct {
	Athletes []json.RawMessage `json:"athletes"`
}

type espnScoreboardResponse struct {
	Events []json.RawMessage `json:"events"`
}

type espnSummaryResponse struct {
	Competitions []struct {
		Competitors []json.RawMessage `json:"competitors"`
	} `json:"competitions"`
}

// Fetch implements Connector.
func (c *ESPNConnector) Fetch(ctx context.Context, q Query) ([]model.RawRecord, error) {
	slug, ok := espnLeagueSlugs[q.League.Code]
	if !ok {
		return nil, eris.Errorf("espn: league %s not covered", q.League.Code)
	}

	var nodes []json.RawMessage
	switch q.Kind {
	case model.KindPlayer:
		limit := q.Limit
		if limit == 0 {
			limit = 1000
		}
		url := fmt.Sprintf("%s/%s/athletes?limit=%d", c.baseURL, slug, limit)
		var resp espnAthletesResponse
		if err := c.fetcher.GetJSON(ctx, url, nil, &resp); err != nil {
			return nil, eris.Wrapf(err, "espn: fetch athletes for %s", q.League.Code)
		}
		nodes = resp.Athletes

	case model.KindTournament:
		year := q.Year
		if year == 0 {
			year = time.Now().Year()
		}
		url := fmt.Sprintf("%s/%s/scoreboard?dates=%d", c.baseURL, slug, year)
		var resp espnScoreboardResponse
		if err := c.fetcher.GetJSON(ctx, url, nil, &resp); err != nil {
			return nil, eris.Wrapf(err, "espn: fetch events for %s %d", q.League.Code, year)
		}
		nodes = resp.Events

	case model.KindResult:
		if q.TournamentNativeID == "" {
			return nil, eris.New("espn: result fetch requires a tournament native id")
		}
		url := fmt.Sprintf("%s/%s/summary?event=%s", c.baseURL, slug, q.TournamentNativeID)
		var resp espnSummaryResponse
		if err := c.fetcher.GetJSON(ctx, url, nil, &resp); err != nil {
			return nil, eris.Wrapf(err, "espn: fetch leaderboard for event %s", q.TournamentNativeID)
		}
		if len(resp.Competitions) == 0 {
			return nil, eris.Errorf("espn: event %s has no competition data", q.TournamentNativeID)
		}
		nodes = resp.Competitions[0].Competitors

	default:
		return nil, eris.Errorf("espn: unsupported record kind %q", q.Kind)
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

	zap.L().Debug("fetched records from espn",
		zap.String("league", q.League.Code),
		zap.String("kind", string(q.Kind)),
		zap.Int("count", len(records)),
	)
	return records, nil
}
