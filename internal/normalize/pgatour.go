package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fairway-media/golftracker/internal/model"
)

// PGATour normalizes payloads from the tour orchestrator GraphQL API. The
// connector passes each node through untouched, so the decode structs here
// mirror the orchestrator's field names.
type PGATour struct{}

// NewPGATour returns the normalizer for the official tour API.
func NewPGATour() *PGATour { return &PGATour{} }

// Source implements Normalizer.
func (n *PGATour) Source() string { return "pgatour" }

type pgaPlayerNode struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country"`
	Headshot  string `json:"headshot"`
}

type pgaTournamentNode struct {
	ID             string  `json:"id"`
	TournamentName string  `json:"tournamentName"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	CourseName     string  `json:"courseName"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Country        string  `json:"country"`
	Purse          float64 `json:"purse"`
	Par            int     `json:"par"`
	RoundsCount    int     `json:"roundsCount"`
	Status         string  `json:"status"`
}

type pgaLeaderboardRow struct {
	PlayerID     string  `json:"playerId"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Position     string  `json:"position"`
	Total        string  `json:"total"`
	TotalStrokes string  `json:"totalStrokes"`
	Rounds       []*int  `json:"rounds"`
	Status       string  `json:"status"`
	Earnings     float64 `json:"earnings"`
}

// Normalize implements Normalizer.
func (n *PGATour) Normalize(raw model.RawRecord) (*model.NormalizedRecord, error) {
	out := &model.NormalizedRecord{
		Source:    raw.Source,
		Kind:      raw.Kind,
		League:    raw.League,
		FetchedAt: raw.FetchedAt,
	}

	switch raw.Kind {
	case model.KindPlayer:
		var node pgaPlayerNode
		if err := json.Unmarshal(raw.Payload, &node); err != nil {
			return nil, Malformed(err, "pgatour: decode player node")
		}
		if node.ID == "" {
			return nil, Malformed(nil, "pgatour: player node without id")
		}
		if node.LastName == "" {
			return nil, Malformed(nil, "pgatour: player node without last name")
		}
		out.NativeID = node.ID
		out.Player = &model.PlayerFields{
			FirstName: strings.TrimSpace(node.FirstName),
			LastName:  strings.TrimSpace(node.LastName),
			Country:   strings.TrimSpace(node.Country),
			ImageURL:  node.Headshot,
		}
		return out, nil

	case model.KindTournament:
		var node pgaTournamentNode
		if err := json.Unmarshal(raw.Payload, &node); err != nil {
			return nil, Malformed(err, "pgatour: decode tournament node")
		}
		if node.TournamentName == "" {
			return nil, Malformed(nil, "pgatour: tournament node without name")
		}
		start := parseDate(node.StartDate)
		year := tournamentYearFromID(node.ID)
		if year == 0 && start != nil {
			year = start.Year()
		}
		if year == 0 {
			return nil, Malformed(nil, "pgatour: tournament node without year")
		}
		tf := &model.TournamentFields{
			Name:       strings.TrimSpace(node.TournamentName),
			Year:       year,
			StartDate:  start,
			EndDate:    parseDate(node.EndDate),
			CourseName: node.CourseName,
			City:       node.City,
			State:      node.State,
			Country:    node.Country,
			Status:     pgaTournamentStatus(node.Status),
		}
		if node.Purse > 0 {
			tf.Purse = &node.Purse
		}
		if node.Par > 0 {
			tf.Par = &node.Par
		}
		if node.RoundsCount > 0 {
			tf.TotalRounds = &node.RoundsCount
		}
		out.NativeID = node.ID
		out.Tournament = tf
		return out, nil

	case model.KindResult:
		var row pgaLeaderboardRow
		if err := json.Unmarshal(raw.Payload, &row); err != nil {
			return nil, Malformed(err, "pgatour: decode leaderboard row")
		}
		if row.PlayerID == "" {
			return nil, Malformed(nil, "pgatour: leaderboard row without player id")
		}
		out.NativeID = row.PlayerID
		out.Player = &model.PlayerFields{
			FirstName: strings.TrimSpace(row.FirstName),
			LastName:  strings.TrimSpace(row.LastName),
		}

		rf := &model.ResultFields{
			PositionDisplay: row.Position,
			RoundScores:     row.Rounds,
			Status:          pgaResultStatus(row.Status),
		}
		if pos := parsePosition(row.Position); pos != nil {
			rf.Position = pos
		}
		if tp, ok := parseToPar(row.Total); ok {
			rf.TotalToPar = &tp
		}
		if ts, err := strconv.Atoi(row.TotalStrokes); err == nil && ts > 0 {
			rf.TotalScore = &ts
		}
		if row.Earnings > 0 {
			rf.Earnings = &row.Earnings
		}
		out.Result = rf
		return out, nil
	}

	return nil, Malformed(nil, "pgatour: unknown record kind "+string(raw.Kind))
}

// tournamentYearFromID pulls the season out of orchestrator tournament ids
// like "R2025016".
func tournamentYearFromID(id string) int {
	if len(id) < 5 {
		return 0
	}
	y, err := strconv.Atoi(id[1:5])
	if err != nil || y < 1900 || y > 2200 {
		return 0
	}
	return y
}

func pgaTournamentStatus(s string) model.TournamentStatus {
	switch strings.ToUpper(s) {
	case "COMPLETED", "OFFICIAL":
		return model.TournamentCompleted
	case "IN_PROGRESS", "LIVE":
		return model.TournamentInProgress
	case "CANCELLED", "CANCELED":
		return model.TournamentCancelled
	default:
		return model.TournamentScheduled
	}
}

func pgaResultStatus(s string) model.ResultStatus {
	switch strings.ToUpper(s) {
	case "CUT", "MISSED_CUT":
		return model.ResultCut
	case "WD", "WITHDRAWN":
		return model.ResultWithdrawn
	case "DQ", "DISQUALIFIED":
		return model.ResultDisqualified
	default:
		return model.ResultActive
	}
}

// parsePosition turns leaderboard positions like "1", "T3" into a rank.
// Non-finishing markers ("CUT", "WD", "-") yield nil.
func parsePosition(display string) *int {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(display)), "T")
	p, err := strconv.Atoi(s)
	if err != nil || p <= 0 {
		return nil
	}
	return &p
}

// parseToPar parses scores like "-14", "+3", "E".
func parseToPar(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.EqualFold(s, "E") {
		return 0, true
	}
	v, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, false
	}
	return v, true
}
