// Package model defines the canonical entity types shared across the
// ingestion, reconciliation, and enrichment pipeline.
package model

import (
	"fmt"
	"time"
)

// Player is the canonical record for one real-world golfer, reconciled
// across every source that references them. The high school / hometown /
// college columns are the payload that matters downstream: they are what
// lets a local newsroom connect a leaderboard name to its own coverage area.
type Player struct {
	ID        int64  `json:"player_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	BirthDate *time.Time `json:"birth_date,omitempty"`

	HighSchoolName     string `json:"high_school_name,omitempty"`
	HighSchoolCity     string `json:"high_school_city,omitempty"`
	HighSchoolState    string `json:"high_school_state,omitempty"`
	HighSchoolGradYear int    `json:"high_school_grad_year,omitempty"`

	HometownCity    string `json:"hometown_city,omitempty"`
	HometownState   string `json:"hometown_state,omitempty"`
	HometownCountry string `json:"hometown_country,omitempty"`

	CollegeName     string `json:"college_name,omitempty"`
	CollegeGradYear int    `json:"college_grad_year,omitempty"`

	ProfileImageURL string `json:"profile_image_url,omitempty"`

	BioLastUpdated *time.Time `json:"bio_last_updated,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FullName returns the player's display name.
func (p *Player) FullName() string {
	return p.FirstName + " " + p.LastName
}

// HighSchoolBlurb returns a news-ready fragment like
// "a 2014 graduate of Highland Park High School", or "" when the
// graduation year or school is unknown.
func (p *Player) HighSchoolBlurb() string {
	if p.HighSchoolName == "" || p.HighSchoolGradYear == 0 {
		return ""
	}
	return fmt.Sprintf("a %d graduate of %s", p.HighSchoolGradYear, p.HighSchoolName)
}

// HighSchoolFull returns the school with its location, e.g.
// "Highland Park High School in Dallas, Texas".
func (p *Player) HighSchoolFull() string {
	if p.HighSchoolName == "" {
		return ""
	}
	s := p.HighSchoolName
	if p.HighSchoolCity != "" {
		s += " in " + p.HighSchoolCity
		if p.HighSchoolState != "" {
			s += ", " + p.HighSchoolState
		}
	}
	return s
}

// SourceBinding maps a source namespace to that source's native identifier
// for an entity. Within one source, a native ID binds to at most one
// canonical entity, and an entity holds at most one native ID per source.
type SourceBinding struct {
	Source   string `json:"source"`
	NativeID string `json:"native_id"`
}

// PlayerLeague records a player's membership in a league, with the
// league's own player identifier where the tour exposes one.
type PlayerLeague struct {
	PlayerID        int64  `json:"player_id"`
	LeagueID        int64  `json:"league_id"`
	LeaguePlayerID  string `json:"league_player_id,omitempty"`
	IsCurrentMember bool   `json:"is_current_member"`
}

// League is a golf tour tracked by the pipeline (PGA Tour, LPGA, LIV, ...).
type League struct {
	ID         int64     `json:"league_id"`
	Code       string    `json:"league_code"`
	Name       string    `json:"league_name"`
	WebsiteURL string    `json:"website_url,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
