package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/onboard/internal/config"
	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/internal/prompt"
	"github.com/brightpath/onboard/pkg/anthropic"
)

func newTestOrchestrator(client anthropic.Client, rec Recorder) *Orchestrator {
	resolver := prompt.NewResolver(nil, "claude-sonnet-4-5-20250929")
	return NewOrchestrator(client, resolver, rec,
		config.AnthropicConfig{MaxTokens: 2048, RetryAttempts: 1},
		config.PipelineConfig{ConfidenceThreshold: 0.50},
	)
}

const kickoffResponse = `{
	"businessContext": {"problem": "manual invoice triage"},
	"stakeholders": [
		{"name": "Dana", "role": "AP lead", "quote": "I review each invoice", "timestamp": "00:02:14", "confidence": 0.9},
		{"name": "Sam", "quote": "I sometimes help out", "confidence": 0.3}
	],
	"kpis": []
}`

func TestExtract_ValidatedResult(t *testing.T) {
	ctx := context.Background()
	client := &mockAnthropicClient{}
	rec := &captureRecorder{}

	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: kickoffResponse}},
			Usage:   anthropic.TokenUsage{InputTokens: 1200, OutputTokens: 150},
		}, nil).Once()

	o := newTestOrchestrator(client, rec)
	result, err := o.Extract(ctx, model.ExtractionRequest{
		Content:     "Dana: I review each invoice by hand.",
		ContentType: model.ContentTranscript,
		Family:      model.FamilyKickoff,
	})

	require.NoError(t, err)
	assert.False(t, result.Fallback)
	// Sam's 0.3 confidence item is excluded, not down-ranked.
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Dana", result.Items[0].Content)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 1200, result.Usage.InputTokens)

	require.Len(t, rec.ops, 1)
	assert.True(t, rec.ops[0].Success)
	assert.Equal(t, "false", rec.ops[0].Metadata["fallback"])
	assert.Equal(t, 1200, rec.ops[0].InputTokens)
	client.AssertExpectations(t)
}

func TestExtract_SchemaMismatchFallsBack(t *testing.T) {
	ctx := context.Background()
	client := &mockAnthropicClient{}
	rec := &captureRecorder{}

	// Syntactically valid JSON that misses required fields.
	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: `{"businessContext":{"problem":"x"}}`}},
			Usage:   anthropic.TokenUsage{InputTokens: 900, OutputTokens: 40},
		}, nil).Once()

	o := newTestOrchestrator(client, rec)
	result, err := o.Extract(ctx, model.ExtractionRequest{
		Content:     "short session",
		ContentType: model.ContentTranscript,
		Family:      model.FamilyKickoff,
	})

	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Empty(t, result.Items)
	assert.Equal(t, "x", result.Payload["businessContext"].(map[string]any)["problem"])

	require.Len(t, rec.ops, 1)
	assert.True(t, rec.ops[0].Success, "fallback recovery still counts as success")
	assert.Equal(t, "true", rec.ops[0].Metadata["fallback"])
}

func TestExtract_NoJSONIsTerminal(t *testing.T) {
	ctx := context.Background()
	client := &mockAnthropicClient{}
	rec := &captureRecorder{}

	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "I am unable to help with that."}},
			Usage:   anthropic.TokenUsage{InputTokens: 800, OutputTokens: 12},
		}, nil).Once()

	o := newTestOrchestrator(client, rec)
	result, err := o.Extract(ctx, model.ExtractionRequest{
		Content:     "session",
		ContentType: model.ContentTranscript,
		Family:      model.FamilyKickoff,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "no JSON found")

	require.Len(t, rec.ops, 1)
	assert.False(t, rec.ops[0].Success)
	assert.Equal(t, 800, rec.ops[0].InputTokens, "usage is still recorded")
}

func TestExtract_ProviderFailureClassified(t *testing.T) {
	ctx := context.Background()
	client := &mockAnthropicClient{}
	rec := &captureRecorder{}

	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, eris.New("401 unauthorized: invalid api key sk-ant-secret123 at https://api.anthropic.com/v1/messages")).Once()

	o := newTestOrchestrator(client, rec)
	_, err := o.Extract(ctx, model.ExtractionRequest{
		Content:     "session",
		ContentType: model.ContentTranscript,
		Family:      model.FamilyKickoff,
	})

	require.Error(t, err)
	var xerr *ExtractError
	require.True(t, errors.As(err, &xerr))
	assert.False(t, xerr.Retryable)
	assert.NotContains(t, xerr.Message, "sk-ant-secret123")
	assert.NotContains(t, xerr.Message, "https://")

	require.Len(t, rec.ops, 1)
	assert.False(t, rec.ops[0].Success)
	assert.Zero(t, rec.ops[0].InputTokens, "call never reached the provider usage metadata")
	require.Len(t, rec.errors, 1)
}

func TestExtract_RetriesTransientThenSucceeds(t *testing.T) {
	ctx := context.Background()
	client := &mockAnthropicClient{}
	rec := &captureRecorder{}

	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, eris.New("429 too many requests")).Once()
	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: kickoffResponse}},
			Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
		}, nil).Once()

	resolver := prompt.NewResolver(nil, "claude-sonnet-4-5-20250929")
	o := NewOrchestrator(client, resolver, rec,
		config.AnthropicConfig{RetryAttempts: 3},
		config.PipelineConfig{ConfidenceThreshold: 0.50},
	)

	result, err := o.Extract(ctx, model.ExtractionRequest{
		Content:     "session",
		ContentType: model.ContentTranscript,
		Family:      model.FamilyKickoff,
	})

	require.NoError(t, err)
	assert.False(t, result.Fallback)
	client.AssertExpectations(t)
}

func TestExtract_UnknownFamilyStillRuns(t *testing.T) {
	ctx := context.Background()
	client := &mockAnthropicClient{}
	rec := &captureRecorder{}

	client.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: `{"items":[{"type":"kpi","content":"cycle time","quote":"same day","confidence":0.8}]}`}},
		}, nil).Once()

	o := newTestOrchestrator(client, rec)
	result, err := o.Extract(ctx, model.ExtractionRequest{
		Content:     "session",
		ContentType: model.ContentTranscript,
		Family:      model.Family("retrospective"),
	})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, model.ItemKPI, result.Items[0].Type)
	assert.Equal(t, 0, result.Usage.InputTokens, "absent usage defaults to zero")
}
