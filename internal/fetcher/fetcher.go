package fetcher

import (
	"context"
	"net/http"
)

// Fetcher defines the interface for talking to remote data sources.
type Fetcher interface {
	// Get fetches the URL and returns the response body.
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)

	// GetJSON fetches the URL and decodes the JSON response into out.
	GetJSON(ctx context.Context, url string, header http.Header, out any) error

	// PostJSON sends body as JSON to the URL and decodes the JSON
	// response into out.
	PostJSON(ctx context.Context, url string, header http.Header, body any, out any) error
}
