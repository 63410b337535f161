package model

import "time"

// PromptTemplate is an operator-managed instruction template for one
// extraction family. At most one template per family is active at a time;
// lookup prefers the highest version among active rows. Read-only to the
// pipeline.
type PromptTemplate struct {
	ID          string    `json:"id"`
	Family      Family    `json:"family"`
	Version     int       `json:"version"`
	Instruction string    `json:"instruction"`
	Model       string    `json:"model,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int64     `json:"max_tokens,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateSource identifies which resolver tier served a template, so
// operators can detect when compiled-in defaults are silently in use.
type TemplateSource string

const (
	SourceStore   TemplateSource = "store"
	SourceDefault TemplateSource = "default"
	SourceLegacy  TemplateSource = "legacy"
)

// ResolvedPrompt is the outcome of template resolution: the instruction
// text plus the tier that served it.
type ResolvedPrompt struct {
	Family      Family
	Instruction string
	Model       string
	Temperature *float64
	MaxTokens   int64
	Source      TemplateSource
	Version     int
}
