package model

// ItemType tags the kind of structured fact an ExtractedItem carries.
type ItemType string

const (
	ItemStakeholder  ItemType = "stakeholder"
	ItemKPI          ItemType = "kpi"
	ItemProcessStep  ItemType = "process_step"
	ItemIntegration  ItemType = "integration"
	ItemGuardrail    ItemType = "guardrail"
	ItemPersonaTrait ItemType = "persona_trait"
	ItemDecision     ItemType = "decision"
	ItemRisk         ItemType = "risk"
)

// Evidence locates an extracted fact in the source material. Timestamp is
// set for recordings, Locator (page/paragraph) for documents.
type Evidence struct {
	Quote     string `json:"quote,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Locator   string `json:"locator,omitempty"`
}

// ExtractedItem is one structured fact produced by an extraction call.
// Items are created once per call and never mutated afterwards; human
// review happens outside this pipeline.
type ExtractedItem struct {
	Type       ItemType       `json:"type"`
	Category   string         `json:"category,omitempty"`
	Content    string         `json:"content"`
	Payload    map[string]any `json:"payload,omitempty"`
	Confidence float64        `json:"confidence"`
	Evidence   *Evidence      `json:"evidence,omitempty"`
}
