package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
)

// livRosterEntry is one row of the bundled LIV roster.
type livRosterEntry struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country"`
	Team      string `json:"team"`
}

// livRoster is the bundled LIV Golf roster. LIV publishes no stable public
// API, so the connector ships its roster in-process; the reconcile engine
// treats it like any other source and merges it by name key.
var livRoster = []livRosterEntry{
	{ID: "liv-rahm", FirstName: "Jon", LastName: "Rahm", Country: "ESP", Team: "Legion XIII"},
	{ID: "liv-koepka", FirstName: "Brooks", LastName: "Koepka", Country: "USA", Team: "Smash GC"},
	{ID: "liv-dechambeau", FirstName: "Bryson", LastName: "DeChambeau", Country: "USA", Team: "Crushers GC"},
	{ID: "liv-smith", FirstName: "Cameron", LastName: "Smith", Country: "AUS", Team: "Ripper GC"},
	{ID: "liv-johnson", FirstName: "Dustin", LastName: "Johnson", Country: "USA", Team: "4Aces GC"},
	{ID: "liv-mickelson", FirstName: "Phil", LastName: "Mickelson", Country: "USA", Team: "HyFlyers GC"},
	{ID: "liv-niemann", FirstName: "Joaquin", LastName: "Niemann", Country: "CHI", Team: "Torque GC"},
	{ID: "liv-hatton", FirstName: "Tyrrell", LastName: "Hatton", Country: "ENG", Team: "Legion XIII"},
	{ID: "liv-reed", FirstName: "Patrick", LastName: "Reed", Country: "USA", Team: "4Aces GC"},
	{ID: "liv-gooch", FirstName: "Talor", LastName: "Gooch", Country: "USA", Team: "Smash GC"},
	{ID: "liv-oosthuizen", FirstName: "Louis", LastName: "Oosthuizen", Country: "RSA", Team: "Stinger GC"},
	{ID: "liv-garcia", FirstName: "Sergio", LastName: "Garcia", Country: "ESP", Team: "Fireballs GC"},
}

// LIVConnector serves the bundled LIV Golf roster.
type LIVConnector struct {
	roster []livRosterEntry
}

// NewLIV creates the static LIV connector.
func NewLIV() *LIVConnector {
	return &LIVConnector{roster: livRoster}
}

// Name implements Connector.
func (c *LIVConnector) Name() string { return "liv" }

// Supports implements Connector.
func (c *LIVConnector) Supports(l league.League) bool {
	return l.Code == league.LIV
}

// Fetch implements Connector.
func (c *LIVConnector) Fetch(ctx context.Context, q Query) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Kind != model.KindPlayer {
		return nil, eris.Errorf("liv: unsupported record kind %q", q.Kind)
	}

	entries := c.roster
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	now := time.Now().UTC()
	records := make([]model.RawRecord, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, eris.Wrap(err, "liv: encode roster entry")
		}
		records = append(records, model.RawRecord{
			Source:    c.Name(),
			Kind:      model.KindPlayer,
			League:    league.LIV,
			FetchedAt: now,
			Payload:   payload,
		})
	}
	return records, nil
}
