package league

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// League describes one supported golf league and where its data comes from.
type League struct {
	Code string
	Name string

	// AuthoritativeSource is the connector whose records win merges for
	// this league's rosters and results.
	AuthoritativeSource string

	// TourCode is the native code the official tour API uses, for
	// leagues served by a shared endpoint.
	TourCode string

	// Active controls whether scrape-all includes the league.
	Active bool
}

// Supported league codes.
const (
	PGA        = "PGA"
	KornFerry  = "KORNFERRY"
	Champions  = "CHAMPIONS"
	LPGA       = "LPGA"
	LIV        = "LIV"
	DPWorld    = "DPWORLD"
)

var leagues = map[string]League{
	PGA:       {Code: PGA, Name: "PGA Tour", AuthoritativeSource: "pgatour", TourCode: "R", Active: true},
	KornFerry: {Code: KornFerry, Name: "Korn Ferry Tour", AuthoritativeSource: "pgatour", TourCode: "H", Active: true},
	Champions: {Code: Champions, Name: "PGA Tour Champions", AuthoritativeSource: "pgatour", TourCode: "S", Active: true},
	LPGA:      {Code: LPGA, Name: "LPGA Tour", AuthoritativeSource: "espn", Active: true},
	LIV:       {Code: LIV, Name: "LIV Golf", AuthoritativeSource: "liv", Active: true},
	DPWorld:   {Code: DPWorld, Name: "DP World Tour", AuthoritativeSource: "espn", Active: false},
}

// Get returns the league for a code, case-insensitively.
func Get(code string) (League, error) {
	l, ok := leagues[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return League{}, eris.Errorf("league: unknown code %q", code)
	}
	return l, nil
}

// All returns every registered league sorted by code.
func All() []League {
	out := make([]League, 0, len(leagues))
	for _, l := range leagues {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Active returns the leagues included in a full sweep.
func Active() []League {
	var out []League
	for _, l := range All() {
		if l.Active {
			out = append(out, l)
		}
	}
	return out
}

// Codes returns all league codes sorted, for help text and validation errors.
func Codes() []string {
	out := make([]string, 0, len(leagues))
	for code := range leagues {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
