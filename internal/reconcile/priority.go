package reconcile

// Ranks is the reliability ordering across sources. Higher wins a field
// conflict; equal rank lets the newer scrape win.
type Ranks map[string]int

// DefaultRanks reflects how much each source is trusted. League websites
// and their APIs outrank aggregators, which outrank scraped or inferred
// data.
func DefaultRanks() Ranks {
	return Ranks{
		"pgatour":   100,
		"liv":       100,
		"espn":      80,
		"wikipedia": 60,
		"websearch": 40,
		"ai":        20,
	}
}

// Merge overlays overrides onto the defaults without mutating either.
func (r Ranks) Merge(overrides map[string]int) Ranks {
	out := make(Ranks, len(r)+len(overrides))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Rank returns the rank for a source. Unknown sources rank below
// everything, so they can only fill gaps.
func (r Ranks) Rank(source string) int {
	return r[source]
}
