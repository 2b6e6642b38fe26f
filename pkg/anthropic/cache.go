package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
)

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint set to a 1-hour TTL. The extraction prompt is identical for
// every player, so each request after the first reads it from cache.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "1h",
			},
		},
	}
}

// PrimerRequest sends one message to warm the prompt cache before a batch
// submit. The request should carry system blocks built with
// BuildCachedSystemBlocks; the response can be discarded.
func PrimerRequest(ctx context.Context, client Client, req MessageRequest) (*MessageResponse, error) {
	resp, err := client.CreateMessage(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: primer request")
	}
	return resp, nil
}
