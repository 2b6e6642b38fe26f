package normalize

import (
	"encoding/json"
	"strings"

	"github.com/fairway-media/golftracker/internal/model"
)

// LIV normalizes records from the in-process LIV roster dataset. The
// payload shape is ours, so decoding failures here mean a programming
// error rather than an upstream change, but they are still reported as
// malformed so the run accounting stays uniform.
type LIV struct{}

// NewLIV returns the normalizer for the static LIV roster.
func NewLIV() *LIV { return &LIV{} }

// Source implements Normalizer.
func (n *LIV) Source() string { return "liv" }

type livPlayerEntry struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country"`
	Team      string `json:"team"`
	ImageURL  string `json:"image_url"`
}

// Normalize implements Normalizer.
func (n *LIV) Normalize(raw model.RawRecord) (*model.NormalizedRecord, error) {
	if raw.Kind != model.KindPlayer {
		return nil, Malformed(nil, "liv: unsupported record kind "+string(raw.Kind))
	}

	var e livPlayerEntry
	if err := json.Unmarshal(raw.Payload, &e); err != nil {
		return nil, Malformed(err, "liv: decode roster entry")
	}
	if e.ID == "" || e.LastName == "" {
		return nil, Malformed(nil, "liv: roster entry missing id or last name")
	}

	return &model.NormalizedRecord{
		Source:    raw.Source,
		Kind:      model.KindPlayer,
		League:    raw.League,
		NativeID:  e.ID,
		FetchedAt: raw.FetchedAt,
		Player: &model.PlayerFields{
			FirstName: strings.TrimSpace(e.FirstName),
			LastName:  strings.TrimSpace(e.LastName),
			Country:   strings.TrimSpace(e.Country),
			ImageURL:  e.ImageURL,
		},
	}, nil
}
