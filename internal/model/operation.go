package model

import "time"

// OperationRecord describes one model invocation: cost, latency and
// outcome. Records are append-only; calls that never reached the provider
// carry zeroed token counts.
type OperationRecord struct {
	ID           string            `json:"id"`
	Pipeline     string            `json:"pipeline"`
	Model        string            `json:"model"`
	InputTokens  int               `json:"input_tokens"`
	OutputTokens int               `json:"output_tokens"`
	LatencyMs    int64             `json:"latency_ms"`
	Success      bool              `json:"success"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OperationSummary aggregates operation records over a window.
type OperationSummary struct {
	Total        int     `json:"total"`
	Succeeded    int     `json:"succeeded"`
	Failed       int     `json:"failed"`
	SuccessRate  float64 `json:"success_rate"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
	CostUSD      float64 `json:"cost_usd"`
}

// ErrorEvent is a deduplicated recurring-error record. An open event with
// an identical message absorbs new occurrences (count + last seen); once
// resolved it never merges again and a fresh event is created instead.
type ErrorEvent struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Count      int       `json:"count"`
	Resolved   bool      `json:"resolved"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}
