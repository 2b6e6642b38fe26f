package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/fetcher"
	"github.com/fairway-media/golftracker/internal/model"
)

// WikipediaSource reads the REST summary for the player's article and
// extracts biography fields from the lead text.
type WikipediaSource struct {
	fetcher fetcher.Fetcher
	baseURL string
}

func NewWikipedia(f fetcher.Fetcher, baseURL string) *WikipediaSource {
	return &WikipediaSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (w *WikipediaSource) Name() string { return "wikipedia" }

type wikiSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Type        string `json:"type"`
}

func (w *WikipediaSource) Lookup(ctx context.Context, p *model.Player, missing []string) (model.BioFields, error) {
	title := url.PathEscape(strings.ReplaceAll(p.FirstName+" "+p.LastName, " ", "_"))
	endpoint := w.baseURL + "/page/summary/" + title

	var summary wikiSummary
	if err := w.fetcher.GetJSON(ctx, endpoint, nil, &summary); err != nil {
		return model.BioFields{}, eris.Wrapf(err, "wikipedia: summary %s %s", p.FirstName, p.LastName)
	}
	// disambiguation pages describe several people; extracting from one
	// would attribute a stranger's biography
	if summary.Type == "disambiguation" {
		zap.L().Debug("wikipedia disambiguation page skipped",
			zap.String("player", p.FirstName+" "+p.LastName))
		return model.BioFields{}, nil
	}
	if !strings.Contains(strings.ToLower(summary.Description+" "+summary.Extract), "golf") {
		return model.BioFields{}, nil
	}

	return extractBio(summary.Extract, missing), nil
}
