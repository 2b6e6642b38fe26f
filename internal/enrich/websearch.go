package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/fetcher"
	"github.com/fairway-media/golftracker/internal/model"
)

// WebSearchSource runs a search query per player and extracts fields from
// the result snippets. It ranks below wikipedia: snippets are noisy, so
// it only ever fills what better sources left open.
type WebSearchSource struct {
	fetcher fetcher.Fetcher
	baseURL string
}

func NewWebSearch(f fetcher.Fetcher, baseURL string) *WebSearchSource {
	return &WebSearchSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (w *WebSearchSource) Name() string { return "websearch" }

func (w *WebSearchSource) Lookup(ctx context.Context, p *model.Player, missing []string) (model.BioFields, error) {
	query := p.FirstName + " " + p.LastName + " golfer " + queryTerms(missing)
	endpoint := w.baseURL + "/?q=" + url.QueryEscape(query)

	body, err := w.fetcher.Get(ctx, endpoint, nil)
	if err != nil {
		return model.BioFields{}, eris.Wrapf(err, "websearch: query %q", query)
	}

	text := stripHTML(string(body))
	// only trust snippets that actually mention the player
	if !strings.Contains(text, p.LastName) {
		return model.BioFields{}, nil
	}
	return extractBio(text, missing), nil
}

// queryTerms biases the search toward the fields still missing.
func queryTerms(missing []string) string {
	var terms []string
	seen := map[string]bool{}
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	for _, key := range missing {
		switch key {
		case model.FieldHighSchoolName, model.FieldHighSchoolCity,
			model.FieldHighSchoolState, model.FieldHighSchoolGradYear:
			add("high school")
		case model.FieldHometownCity, model.FieldHometownState:
			add("hometown")
		case model.FieldCollegeName:
			add("college")
		}
	}
	return strings.Join(terms, " ")
}
