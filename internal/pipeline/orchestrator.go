// Package pipeline turns unreliable model output into typed, trustworthy
// extraction records: prompt assembly, provider invocation, strict
// validation with permissive recovery, confidence filtering, and
// operation tracking.
package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/config"
	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/internal/prompt"
	"github.com/brightpath/onboard/internal/sanitize"
	"github.com/brightpath/onboard/internal/schema"
	"github.com/brightpath/onboard/pkg/anthropic"
)

// pipelineName identifies this pipeline in operation records.
const pipelineName = "session-extraction"

// defaultMaxTokens bounds output when neither the template nor config
// set a budget.
const defaultMaxTokens = 4096

// Recorder observes every model invocation. Implementations must never
// fail the caller.
type Recorder interface {
	Record(ctx context.Context, op model.OperationRecord)
	RecordError(ctx context.Context, message string)
}

// ExtractError is the sanitized failure surfaced to callers when the
// provider call fails or no JSON can be recovered at all.
type ExtractError struct {
	Message   string
	Retryable bool
}

func (e *ExtractError) Error() string { return e.Message }

// Orchestrator runs the extraction pipeline end to end. Each invocation
// is independent; the only shared state is the read-only template
// resolver and the append-only tracker.
type Orchestrator struct {
	client   anthropic.Client
	resolver *prompt.Resolver
	recorder Recorder
	aiCfg    config.AnthropicConfig
	cfg      config.PipelineConfig
}

// NewOrchestrator wires the pipeline. recorder may be nil in tests.
func NewOrchestrator(client anthropic.Client, resolver *prompt.Resolver, recorder Recorder, aiCfg config.AnthropicConfig, cfg config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		client:   client,
		resolver: resolver,
		recorder: recorder,
		aiCfg:    aiCfg,
		cfg:      cfg,
	}
}

// Extract runs one pipeline invocation: sanitize, assemble, call, parse.
// It fails only when the provider call fails after classification or when
// no JSON can be located in the response at all. Schema mismatches
// degrade to a permissively parsed result flagged Fallback=true.
func (o *Orchestrator) Extract(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error) {
	label := req.ContentLabel
	if label == "" {
		label = string(req.ContentType)
	}
	wrapped := sanitize.Wrap(req.Content, label)

	resolved := o.resolver.Resolve(ctx, req.Family)
	promptText := prompt.Render(resolved, wrapped, req.ContentType)

	maxTokens := resolved.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.aiCfg.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msgReq := anthropic.MessageRequest{
		Model:       resolved.Model,
		MaxTokens:   maxTokens,
		Temperature: resolved.Temperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: promptText},
		},
	}

	meta := map[string]string{
		"family":          string(req.Family),
		"content_type":    string(req.ContentType),
		"template_source": string(resolved.Source),
	}

	start := time.Now()
	resp, err := callWithRetry(ctx, o.aiCfg.RetryAttempts, "extract", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return o.client.CreateMessage(ctx, msgReq)
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		cls := Classify(err)
		meta["retryable"] = strconv.FormatBool(cls.Retryable)
		o.record(ctx, model.OperationRecord{
			Pipeline:     pipelineName,
			Model:        resolved.Model,
			LatencyMs:    latency,
			Success:      false,
			ErrorMessage: cls.UserMessage,
			Metadata:     meta,
		})
		zap.L().Error("pipeline: provider call failed",
			zap.String("family", string(req.Family)),
			zap.String("message", cls.UserMessage),
			zap.Bool("retryable", cls.Retryable),
		)
		return nil, &ExtractError{Message: cls.UserMessage, Retryable: cls.Retryable}
	}

	// Some providers omit usage metadata; zero is a safe default.
	usage := model.TokenUsage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	text := resp.Text()
	outcome := schema.Validate(text, req.Family)

	switch {
	case outcome.Valid:
		items, dropped := FilterByConfidence(outcome.Payload.Items(), o.cfg.ConfidenceThreshold)
		meta["fallback"] = "false"
		o.record(ctx, model.OperationRecord{
			Pipeline:     pipelineName,
			Model:        resolved.Model,
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			LatencyMs:    latency,
			Success:      true,
			Metadata:     meta,
		})
		return &model.ExtractionResult{
			Family:    req.Family,
			Items:     items,
			Payload:   outcome.Raw,
			Model:     resolved.Model,
			Usage:     usage,
			LatencyMs: latency,
			Dropped:   dropped,
		}, nil

	case outcome.Raw != nil:
		// Strict validation failed but JSON was recovered. Returning a
		// clearly flagged best-effort result beats blocking the product.
		zap.L().Warn("pipeline: strict validation failed, using permissive recovery",
			zap.String("family", string(req.Family)),
			zap.String("reason", outcome.Reason),
		)
		meta["fallback"] = "true"
		meta["validation_error"] = outcome.Reason
		o.record(ctx, model.OperationRecord{
			Pipeline:     pipelineName,
			Model:        resolved.Model,
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			LatencyMs:    latency,
			Success:      true,
			Metadata:     meta,
		})
		return &model.ExtractionResult{
			Family:    req.Family,
			Payload:   outcome.Raw,
			Fallback:  true,
			Model:     resolved.Model,
			Usage:     usage,
			LatencyMs: latency,
		}, nil

	default:
		o.record(ctx, model.OperationRecord{
			Pipeline:     pipelineName,
			Model:        resolved.Model,
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			LatencyMs:    latency,
			Success:      false,
			ErrorMessage: outcome.Reason,
			Metadata:     meta,
		})
		return nil, eris.Errorf("pipeline: response unusable: %s", outcome.Reason)
	}
}

// record forwards to the tracker; failures there must not affect the
// primary workflow, and a nil recorder is tolerated for tests.
func (o *Orchestrator) record(ctx context.Context, op model.OperationRecord) {
	if o.recorder == nil {
		return
	}
	o.recorder.Record(ctx, op)
	if !op.Success && op.ErrorMessage != "" {
		o.recorder.RecordError(ctx, op.ErrorMessage)
	}
}
