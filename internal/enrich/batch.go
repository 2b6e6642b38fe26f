package enrich

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/reconcile"
	"github.com/fairway-media/golftracker/internal/store"
	"github.com/fairway-media/golftracker/pkg/anthropic"
)

// BatchEnricher runs the AI lookup for a whole backlog of players through
// the message batch API, which halves the cost versus sequential calls.
type BatchEnricher struct {
	client anthropic.Client
	model  string
	store  store.Store
	engine *reconcile.Engine
}

func NewBatchEnricher(client anthropic.Client, model string, s store.Store, engine *reconcile.Engine) *BatchEnricher {
	return &BatchEnricher{client: client, model: model, store: s, engine: engine}
}

const playerIDPrefix = "player-"

// Submit builds one batch request covering up to limit players missing
// bio fields and returns the batch ID for later collection.
func (b *BatchEnricher) Submit(ctx context.Context, limit int) (string, int, error) {
	players, err := b.store.ListPlayersMissingBio(ctx, limit)
	if err != nil {
		return "", 0, err
	}
	if len(players) == 0 {
		return "", 0, nil
	}

	req := anthropic.BatchRequest{}
	for i := range players {
		p := &players[i]
		req.Requests = append(req.Requests, anthropic.BatchRequestItem{
			CustomID: playerIDPrefix + strconv.FormatInt(p.ID, 10),
			Params: anthropic.MessageRequest{
				Model:     b.model,
				MaxTokens: 1024,
				System:    anthropic.BuildCachedSystemBlocks(bioSystemPrompt),
				Messages: []anthropic.Message{
					{Role: "user", Content: BioPrompt(p, model.MissingBioFields(p))},
				},
			},
		})
	}

	// one sequential request first so the batch hits a warm prompt cache
	if _, err := anthropic.PrimerRequest(ctx, b.client, req.Requests[0].Params); err != nil {
		zap.L().Warn("batch primer failed", zap.Error(err))
	}

	resp, err := b.client.CreateBatch(ctx, req)
	if err != nil {
		return "", 0, eris.Wrap(err, "enrich: submit batch")
	}
	zap.L().Info("enrichment batch submitted",
		zap.String("batch_id", resp.ID),
		zap.Int("players", len(players)))
	return resp.ID, len(players), nil
}

// Collect waits for the batch to finish and applies every successful
// answer. Returns the number of players whose record changed.
func (b *BatchEnricher) Collect(ctx context.Context, batchID string, opts ...anthropic.PollOption) (int, error) {
	if _, err := anthropic.PollBatch(ctx, b.client, batchID, opts...); err != nil {
		return 0, err
	}

	iter, err := b.client.GetBatchResults(ctx, batchID)
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	applied := 0
	for iter.Next() {
		item := iter.Item()
		if item.Type != "succeeded" || item.Message == nil {
			zap.L().Warn("batch item not usable",
				zap.String("custom_id", item.CustomID),
				zap.String("type", item.Type))
			continue
		}
		playerID, err := parsePlayerID(item.CustomID)
		if err != nil {
			zap.L().Warn("batch item has bad custom id", zap.String("custom_id", item.CustomID))
			continue
		}

		bio, err := ParseBioAnswer(item.Message.Text())
		if err != nil {
			zap.L().Warn("batch answer unparseable",
				zap.Int64("player_id", playerID), zap.Error(err))
			continue
		}
		if bio.IsEmpty() {
			continue
		}
		changed, err := b.engine.ApplyBioFields(ctx, playerID, "ai", bio)
		if err != nil {
			return applied, err
		}
		if changed {
			applied++
		}
	}
	if err := iter.Err(); err != nil {
		return applied, eris.Wrap(err, "enrich: read batch results")
	}
	return applied, nil
}

func parsePlayerID(customID string) (int64, error) {
	raw, ok := strings.CutPrefix(customID, playerIDPrefix)
	if !ok {
		return 0, eris.Errorf("enrich: custom id %q has no player prefix", customID)
	}
	return strconv.ParseInt(raw, 10, 64)
}
