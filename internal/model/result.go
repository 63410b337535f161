package model

// TokenUsage tracks token consumption for one or more provider calls.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ExtractionRequest is the input to one pipeline invocation. It is
// ephemeral and never persisted as its own record.
type ExtractionRequest struct {
	Content      string      `json:"content"`
	ContentLabel string      `json:"content_label,omitempty"`
	ContentType  ContentType `json:"content_type"`
	Family       Family      `json:"family"`
}

// ExtractionResult is the typed output of one pipeline invocation.
// Fallback marks results recovered by permissive parsing after strict
// schema validation failed; callers must treat those as lower-trust.
type ExtractionResult struct {
	Family    Family          `json:"family"`
	Items     []ExtractedItem `json:"items"`
	Payload   map[string]any  `json:"payload,omitempty"`
	Fallback  bool            `json:"fallback"`
	Model     string          `json:"model"`
	Usage     TokenUsage      `json:"usage"`
	LatencyMs int64           `json:"latency_ms"`
	Dropped   int             `json:"dropped"`
}
