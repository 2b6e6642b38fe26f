// Package source defines the connector interface and registry for the
// external data sources feeding the pipeline.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
)

// Query narrows what a connector fetch should return.
type Query struct {
	League league.League
	Kind   model.RecordKind

	// Year scopes tournament and result fetches to a season. Zero means
	// the current season.
	Year int

	// TournamentNativeID selects one event's leaderboard for result
	// fetches, in the source's own id space.
	TournamentNativeID string

	// Limit caps the number of records returned. Zero means no cap.
	Limit int
}

// Connector fetches raw records from one external source. Connectors never
// touch storage; they hand RawRecords to the normalizer and leave merge
// decisions to the reconcile engine.
type Connector interface {
	// Name returns the source namespace (e.g. "pgatour", "espn", "liv").
	Name() string

	// Supports reports whether this connector can serve the league.
	Supports(l league.League) bool

	// Fetch returns raw records for the query. Transport retries and
	// pacing have already happened by the time an error surfaces here.
	Fetch(ctx context.Context, q Query) ([]model.RawRecord, error)
}

// Registry maps connector names to implementations.
type Registry struct {
	connectors map[string]Connector
	order      []string // insertion order for deterministic iteration
}

// NewRegistry creates a registry with the given connectors.
func NewRegistry(connectors ...Connector) *Registry {
	r := &Registry{connectors: make(map[string]Connector)}
	for _, c := range connectors {
		r.Register(c)
	}
	return r
}

// Register adds a connector to the registry.
func (r *Registry) Register(c Connector) {
	name := c.Name()
	if _, exists := r.connectors[name]; !exists {
		r.order = append(r.order, name)
	}
	r.connectors[name] = c
}

// Get returns a connector by name.
func (r *Registry) Get(name string) (Connector, error) {
	c, ok := r.connectors[name]
	if !ok {
		return nil, eris.Errorf("source: unknown connector %q", name)
	}
	return c, nil
}

// ForLeague returns the connectors that can serve a league, in
// registration order.
func (r *Registry) ForLeague(l league.League) []Connector {
	var out []Connector
	for _, name := range r.order {
		if c := r.connectors[name]; c.Supports(l) {
			out = append(out, c)
		}
	}
	return out
}

// Authoritative returns the league's authoritative connector.
func (r *Registry) Authoritative(l league.League) (Connector, error) {
	return r.Get(l.AuthoritativeSource)
}

// All returns all connectors in registration order.
func (r *Registry) All() []Connector {
	out := make([]Connector, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.connectors[name])
	}
	return out
}

// AllNames returns all registered connector names in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
