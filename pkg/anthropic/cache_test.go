package anthropic

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildCachedSystemBlocks(t *testing.T) {
	text := "You are a golf research assistant. Answer with a single JSON object..."

	blocks := BuildCachedSystemBlocks(text)

	require.Len(t, blocks, 1)
	assert.Equal(t, text, blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestBuildCachedSystemBlocks_EmptyText(t *testing.T) {
	blocks := BuildCachedSystemBlocks("")

	require.Len(t, blocks, 1)
	assert.Equal(t, "", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestPrimerRequest_Success(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	systemBlocks := BuildCachedSystemBlocks("Bio extraction instructions...")

	req := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 128,
		System:    systemBlocks,
		Messages: []Message{
			{Role: "user", Content: "Acknowledge receipt of the instructions."},
		},
	}

	expected := &MessageResponse{
		ID:         "msg_primer",
		Model:      "claude-haiku-4-5-20251001",
		Content:    []ContentBlock{{Type: "text", Text: "Acknowledged."}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:              100,
			OutputTokens:             5,
			CacheCreationInputTokens: 800,
			CacheReadInputTokens:     0,
		},
	}

	mc.On("CreateMessage", ctx, req).Return(expected, nil)

	resp, err := PrimerRequest(ctx, mc, req)
	require.NoError(t, err)
	assert.Equal(t, "msg_primer", resp.ID)
	assert.Equal(t, int64(800), resp.Usage.CacheCreationInputTokens)

	mc.AssertExpectations(t)
}

func TestPrimerRequest_Error(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	req := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 128,
		System:    BuildCachedSystemBlocks("Instructions"),
		Messages:  []Message{{Role: "user", Content: "Ack."}},
	}

	mc.On("CreateMessage", ctx, req).Return(nil, fmt.Errorf("rate limited"))

	_, err := PrimerRequest(ctx, mc, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primer request")
	assert.Contains(t, err.Error(), "rate limited")

	mc.AssertExpectations(t)
}

func TestPrimerRequest_CacheHitOnSecondCall(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	systemBlocks := BuildCachedSystemBlocks("Shared extraction prompt...")

	// First call: cache creation
	req1 := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 128,
		System:    systemBlocks,
		Messages:  []Message{{Role: "user", Content: "Golfer: Scottie Scheffler"}},
	}
	mc.On("CreateMessage", ctx, req1).Return(&MessageResponse{
		ID:         "msg_1",
		Content:    []ContentBlock{{Type: "text", Text: "{}"}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:              100,
			CacheCreationInputTokens: 2500,
			CacheReadInputTokens:     0,
		},
	}, nil)

	// Second call: cache hit
	req2 := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 128,
		System:    systemBlocks,
		Messages:  []Message{{Role: "user", Content: "Golfer: Ludvig Aberg"}},
	}
	mc.On("CreateMessage", ctx, req2).Return(&MessageResponse{
		ID:         "msg_2",
		Content:    []ContentBlock{{Type: "text", Text: "{}"}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:              100,
			CacheCreationInputTokens: 0,
			CacheReadInputTokens:     2500,
		},
	}, nil)

	resp1, err := PrimerRequest(ctx, mc, req1)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), resp1.Usage.CacheCreationInputTokens)
	assert.Equal(t, int64(0), resp1.Usage.CacheReadInputTokens)

	resp2, err := mc.CreateMessage(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp2.Usage.CacheCreationInputTokens)
	assert.Equal(t, int64(2500), resp2.Usage.CacheReadInputTokens)

	mc.AssertExpectations(t)
}

func TestPrimerRequest_WithBatchWorkflow(t *testing.T) {
	// Full primer + batch pattern: warm the cache with one message, then
	// submit the batch with the same system blocks so every item reads
	// the warm cache.
	mc := new(MockClient)
	ctx := context.Background()

	systemBlocks := BuildCachedSystemBlocks("Bio extraction instructions...")

	primerReq := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 128,
		System:    systemBlocks,
		Messages:  []Message{{Role: "user", Content: "Ack."}},
	}
	mc.On("CreateMessage", ctx, primerReq).Return(&MessageResponse{
		ID:         "msg_primer",
		StopReason: "end_turn",
		Usage:      TokenUsage{CacheCreationInputTokens: 2500},
	}, nil)

	batchReq := BatchRequest{
		Requests: []BatchRequestItem{
			{CustomID: "player-1", Params: MessageRequest{
				Model: "claude-haiku-4-5-20251001", MaxTokens: 1024,
				System:   systemBlocks,
				Messages: []Message{{Role: "user", Content: "Golfer: Scottie Scheffler"}},
			}},
			{CustomID: "player-2", Params: MessageRequest{
				Model: "claude-haiku-4-5-20251001", MaxTokens: 1024,
				System:   systemBlocks,
				Messages: []Message{{Role: "user", Content: "Golfer: Ludvig Aberg"}},
			}},
		},
	}
	mc.On("CreateBatch", ctx, batchReq).Return(&BatchResponse{
		ID:               "batch_001",
		ProcessingStatus: "in_progress",
	}, nil)

	// PollBatch wraps ctx with a deadline, so match any context
	mc.On("GetBatch", mock.Anything, "batch_001").Return(&BatchResponse{
		ID:               "batch_001",
		ProcessingStatus: "ended",
		RequestCounts:    RequestCounts{Succeeded: 2},
	}, nil)

	resultItems := []BatchResultItem{
		{CustomID: "player-1", Type: "succeeded", Message: &MessageResponse{
			ID: "msg_r1", Content: []ContentBlock{{Type: "text", Text: `{"hometown_city":"Dallas"}`}},
			Usage: TokenUsage{CacheReadInputTokens: 2500},
		}},
		{CustomID: "player-2", Type: "succeeded", Message: &MessageResponse{
			ID: "msg_r2", Content: []ContentBlock{{Type: "text", Text: `{"hometown_city":"Eslov"}`}},
			Usage: TokenUsage{CacheReadInputTokens: 2500},
		}},
	}
	mc.On("GetBatchResults", ctx, "batch_001").Return(
		NewMockBatchResultIterator(resultItems), nil,
	)

	resp, err := PrimerRequest(ctx, mc, primerReq)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), resp.Usage.CacheCreationInputTokens)

	batchResp, err := mc.CreateBatch(ctx, batchReq)
	require.NoError(t, err)

	polled, err := PollBatch(ctx, mc, batchResp.ID,
		WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "ended", polled.ProcessingStatus)

	iter, err := mc.GetBatchResults(ctx, "batch_001")
	require.NoError(t, err)
	defer iter.Close()

	var texts []string
	for iter.Next() {
		item := iter.Item()
		require.Equal(t, "succeeded", item.Type)
		assert.Equal(t, int64(2500), item.Message.Usage.CacheReadInputTokens)
		texts = append(texts, item.Message.Text())
	}
	require.NoError(t, iter.Err())
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Dallas")

	mc.AssertExpectations(t)
}

func TestPollBatch_ContextCancelled(t *testing.T) {
	mc := new(MockClient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mc.On("GetBatch", mock.Anything, "batch_cancel").Return(nil, context.Canceled)

	_, err := PollBatch(ctx, mc, "batch_cancel",
		WithPollInterval(10*time.Millisecond),
	)
	require.Error(t, err)
}
