// Package normalize converts source-native payloads into canonical
// records and owns the name normalization used for identity matching.
package normalize

import (
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/model"
)

// ErrMalformedRecord marks a raw record the normalizer could not convert:
// undecodable payload, missing identity fields, or values that violate the
// canonical model. Malformed records are skipped and counted, never stored.
var ErrMalformedRecord = errors.New("malformed record")

// Malformed wraps err (or a fresh message) so errors.Is reports
// ErrMalformedRecord anywhere up the chain.
func Malformed(err error, msg string) error {
	if err == nil {
		return eris.Wrap(ErrMalformedRecord, msg)
	}
	return eris.Wrapf(errors.Join(ErrMalformedRecord, err), "%s", msg)
}

// Normalizer converts one source's raw records into canonical form.
type Normalizer interface {
	// Source returns the connector namespace this normalizer handles.
	Source() string

	// Normalize converts a raw record. Returns ErrMalformedRecord (wrapped)
	// when the payload cannot be mapped.
	Normalize(raw model.RawRecord) (*model.NormalizedRecord, error)
}

// Registry maps source names to their normalizers.
type Registry struct {
	bySource map[string]Normalizer
}

// NewRegistry builds a registry from the given normalizers.
func NewRegistry(normalizers ...Normalizer) *Registry {
	r := &Registry{bySource: make(map[string]Normalizer)}
	for _, n := range normalizers {
		r.bySource[n.Source()] = n
	}
	return r
}

// For returns the normalizer for a source.
func (r *Registry) For(source string) (Normalizer, error) {
	n, ok := r.bySource[source]
	if !ok {
		return nil, eris.Errorf("normalize: no normalizer registered for source %q", source)
	}
	return n, nil
}

// Default returns a registry covering every built-in source.
func Default() *Registry {
	return NewRegistry(NewPGATour(), NewESPN(), NewLIV())
}

// parseDate accepts the date layouts the feeds actually emit.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
