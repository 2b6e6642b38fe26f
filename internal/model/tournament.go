package model

import (
	"strconv"
	"time"
)

// TournamentStatus tracks where a tournament is in its lifecycle.
type TournamentStatus string

const (
	TournamentScheduled  TournamentStatus = "scheduled"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
	TournamentCancelled  TournamentStatus = "cancelled"
)

// ResultStatus is a player's standing within one tournament.
type ResultStatus string

const (
	ResultActive       ResultStatus = "active"
	ResultCut          ResultStatus = "cut"
	ResultWithdrawn    ResultStatus = "withdrawn"
	ResultDisqualified ResultStatus = "disqualified"
)

// Tournament is the canonical record for one event. (league, normalized
// name, year) is the uniqueness key.
type Tournament struct {
	ID       int64  `json:"tournament_id"`
	LeagueID int64  `json:"league_id"`
	League   string `json:"league_code,omitempty"`
	Name     string `json:"tournament_name"`
	Year     int    `json:"tournament_year"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CourseName string `json:"course_name,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`

	Purse         *float64         `json:"purse_amount,omitempty"`
	PurseCurrency string           `json:"purse_currency,omitempty"`
	Par           int              `json:"par,omitempty"`
	TotalRounds   int              `json:"total_rounds"`
	Status        TournamentStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TournamentResult is one player's outcome in one tournament. At most one
// exists per (tournament, player); RoundScores never exceeds the
// tournament's declared total rounds, with nil entries for rounds not
// played.
type TournamentResult struct {
	ID           int64 `json:"result_id"`
	TournamentID int64 `json:"tournament_id"`
	PlayerID     int64 `json:"player_id"`

	FinalPosition   *int   `json:"final_position,omitempty"`
	PositionDisplay string `json:"final_position_display,omitempty"`

	TotalScore  *int   `json:"total_score,omitempty"`
	TotalToPar  *int   `json:"total_to_par,omitempty"`
	RoundScores []*int `json:"round_scores,omitempty"`

	MadeCut  bool         `json:"made_cut"`
	Status   ResultStatus `json:"status"`
	Earnings *float64     `json:"earnings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToParDisplay formats the total-to-par score the way leaderboards print
// it: "E" for even, "+3", "-15", or "-" when unknown.
func (r *TournamentResult) ToParDisplay() string {
	if r.TotalToPar == nil {
		return "-"
	}
	v := *r.TotalToPar
	switch {
	case v == 0:
		return "E"
	case v > 0:
		return "+" + strconv.Itoa(v)
	default:
		return strconv.Itoa(v)
	}
}

// RoundsPlayed counts the non-nil entries in RoundScores.
func (r *TournamentResult) RoundsPlayed() int {
	n := 0
	for _, s := range r.RoundScores {
		if s != nil {
			n++
		}
	}
	return n
}
