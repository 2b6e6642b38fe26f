package model

import (
	"encoding/json"
	"time"
)

// RecordKind discriminates what a record describes.
type RecordKind string

const (
	KindPlayer     RecordKind = "player"
	KindTournament RecordKind = "tournament"
	KindResult     RecordKind = "result"
)

// RawRecord is one record as a connector fetched it: untouched source
// payload tagged with where and when it came from. Connectors never write
// to storage; RawRecords flow into the per-source normalizer.
type RawRecord struct {
	Source    string          `json:"source"`
	Kind      RecordKind      `json:"kind"`
	League    string          `json:"league,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// NormalizedRecord is the canonical shape a RawRecord maps into. Exactly
// one of Player / Tournament / Result is set, matching Kind (a result
// record additionally carries Player identity fields so an unseen player
// can be created on the fly, and Tournament so the result can be anchored).
type NormalizedRecord struct {
	Source    string     `json:"source"`
	Kind      RecordKind `json:"kind"`
	League    string     `json:"league"`
	NativeID  string     `json:"native_id,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`

	Player     *PlayerFields     `json:"player,omitempty"`
	Tournament *TournamentFields `json:"tournament,omitempty"`
	Result     *ResultFields     `json:"result,omitempty"`
}

// PlayerFields is the normalized player portion of a record. Bio fields
// are pointers so absent and empty stay distinguishable for the merge rule.
type PlayerFields struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Country   string    `json:"country,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Bio       BioFields `json:"bio"`
}

// TournamentFields is the normalized tournament portion of a record.
type TournamentFields struct {
	Name        string           `json:"name"`
	Year        int              `json:"year"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
	EndDate     *time.Time       `json:"end_date,omitempty"`
	CourseName  string           `json:"course_name,omitempty"`
	City        string           `json:"city,omitempty"`
	State       string           `json:"state,omitempty"`
	Country     string           `json:"country,omitempty"`
	Purse       *float64         `json:"purse,omitempty"`
	Par         *int             `json:"par,omitempty"`
	TotalRounds *int             `json:"total_rounds,omitempty"`
	Status      TournamentStatus `json:"status,omitempty"`
}

// ResultFields is the normalized result portion of a record.
type ResultFields struct {
	Position        *int         `json:"position,omitempty"`
	PositionDisplay string       `json:"position_display,omitempty"`
	TotalScore      *int         `json:"total_score,omitempty"`
	TotalToPar      *int         `json:"total_to_par,omitempty"`
	RoundScores     []*int       `json:"round_scores,omitempty"`
	Status          ResultStatus `json:"status,omitempty"`
	Earnings        *float64     `json:"earnings,omitempty"`
}
