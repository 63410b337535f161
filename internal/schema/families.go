package schema

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/brightpath/onboard/internal/model"
)

// FamilyPayload is the closed union of per-family extraction shapes. New
// families are added as new variants, never by loosening an existing
// shape.
type FamilyPayload interface {
	Family() model.Family
	// Items flattens the payload into typed extraction items.
	Items() []model.ExtractedItem
	// SelfReport returns model-embedded error/warnings fields. A
	// well-formed "I found nothing" response is a valid business outcome,
	// so these are surfaced for logging, never treated as failures.
	SelfReport() (string, []string)

	validate(present map[string]bool) error
}

// selfReport carries the model's own error/warnings fields, shared by
// every variant.
type selfReport struct {
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s selfReport) SelfReport() (string, []string) { return s.Error, s.Warnings }

// sourced is the evidence block shared by extracted entries. Timestamp is
// populated for recordings, Locator for documents.
type sourced struct {
	Quote      string  `json:"quote"`
	Speaker    string  `json:"speaker,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	Locator    string  `json:"locator,omitempty"`
	Confidence float64 `json:"confidence"`
}

func (s sourced) evidence() *model.Evidence {
	if s.Quote == "" && s.Speaker == "" && s.Timestamp == "" && s.Locator == "" {
		return nil
	}
	return &model.Evidence{Quote: s.Quote, Speaker: s.Speaker, Timestamp: s.Timestamp, Locator: s.Locator}
}

// check enforces the entry-level contract: a supporting quote and a
// confidence inside [0,1].
func (s sourced) check(where string) error {
	if s.Quote == "" {
		return eris.Errorf("%s: missing required quote", where)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return eris.Errorf("%s: confidence %.2f outside [0,1]", where, s.Confidence)
	}
	return nil
}

func requireKeys(present map[string]bool, keys ...string) error {
	for _, k := range keys {
		if !present[k] {
			return eris.Errorf("missing required field %q", k)
		}
	}
	return nil
}

// --- kickoff ---

type BusinessContext struct {
	Problem         string   `json:"problem"`
	Objective       string   `json:"objective,omitempty"`
	SuccessCriteria []string `json:"successCriteria,omitempty"`
}

type Stakeholder struct {
	sourced
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type KPI struct {
	sourced
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
}

type KickoffPayload struct {
	selfReport
	BusinessContext BusinessContext `json:"businessContext"`
	Stakeholders    []Stakeholder   `json:"stakeholders"`
	KPIs            []KPI           `json:"kpis"`
}

func (KickoffPayload) Family() model.Family { return model.FamilyKickoff }

func (p KickoffPayload) validate(present map[string]bool) error {
	if err := requireKeys(present, "businessContext", "stakeholders", "kpis"); err != nil {
		return err
	}
	if p.BusinessContext.Problem == "" {
		return eris.New("businessContext.problem must not be empty")
	}
	for i, s := range p.Stakeholders {
		if err := s.check(fmt.Sprintf("stakeholders[%d]", i)); err != nil {
			return err
		}
	}
	for i, k := range p.KPIs {
		if err := k.check(fmt.Sprintf("kpis[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (p KickoffPayload) Items() []model.ExtractedItem {
	var items []model.ExtractedItem
	for _, s := range p.Stakeholders {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemStakeholder,
			Content:    s.Name,
			Category:   s.Role,
			Confidence: s.Confidence,
			Evidence:   s.evidence(),
		})
	}
	for _, k := range p.KPIs {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemKPI,
			Content:    k.Name,
			Category:   k.Target,
			Confidence: k.Confidence,
			Evidence:   k.evidence(),
		})
	}
	return items
}

// --- process ---

type ProcessStep struct {
	sourced
	Order   int      `json:"order"`
	Name    string   `json:"name"`
	Actor   string   `json:"actor,omitempty"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

type ProcessException struct {
	sourced
	Trigger  string `json:"trigger"`
	Handling string `json:"handling,omitempty"`
}

type ProcessPayload struct {
	selfReport
	ProcessName string             `json:"processName"`
	Steps       []ProcessStep      `json:"steps"`
	Exceptions  []ProcessException `json:"exceptions"`
}

func (ProcessPayload) Family() model.Family { return model.FamilyProcess }

func (p ProcessPayload) validate(present map[string]bool) error {
	if err := requireKeys(present, "processName", "steps"); err != nil {
		return err
	}
	for i, s := range p.Steps {
		if err := s.check(fmt.Sprintf("steps[%d]", i)); err != nil {
			return err
		}
		if s.Order < 1 {
			return eris.Errorf("steps[%d]: order must be >= 1", i)
		}
		if s.Name == "" {
			return eris.Errorf("steps[%d]: missing name", i)
		}
	}
	for i, e := range p.Exceptions {
		if err := e.check(fmt.Sprintf("exceptions[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (p ProcessPayload) Items() []model.ExtractedItem {
	var items []model.ExtractedItem
	for _, s := range p.Steps {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemProcessStep,
			Content:    s.Name,
			Category:   s.Actor,
			Payload:    map[string]any{"order": s.Order, "inputs": s.Inputs, "outputs": s.Outputs},
			Confidence: s.Confidence,
			Evidence:   s.evidence(),
		})
	}
	for _, e := range p.Exceptions {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemRisk,
			Category:   "exception",
			Content:    e.Trigger,
			Payload:    map[string]any{"handling": e.Handling},
			Confidence: e.Confidence,
			Evidence:   e.evidence(),
		})
	}
	return items
}

// --- technical ---

type System struct {
	sourced
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Access string `json:"access,omitempty"`
}

type Integration struct {
	sourced
	From      string `json:"from"`
	To        string `json:"to"`
	Mechanism string `json:"mechanism,omitempty"`
}

type Guardrail struct {
	sourced
	Rule      string `json:"rule"`
	Rationale string `json:"rationale,omitempty"`
}

type TechnicalPayload struct {
	selfReport
	Systems      []System      `json:"systems"`
	Integrations []Integration `json:"integrations"`
	Guardrails   []Guardrail   `json:"guardrails"`
}

func (TechnicalPayload) Family() model.Family { return model.FamilyTechnical }

func (p TechnicalPayload) validate(present map[string]bool) error {
	if err := requireKeys(present, "systems", "integrations", "guardrails"); err != nil {
		return err
	}
	for i, s := range p.Systems {
		if err := s.check(fmt.Sprintf("systems[%d]", i)); err != nil {
			return err
		}
	}
	for i, in := range p.Integrations {
		if err := in.check(fmt.Sprintf("integrations[%d]", i)); err != nil {
			return err
		}
		if in.From == "" || in.To == "" {
			return eris.Errorf("integrations[%d]: from and to are required", i)
		}
	}
	for i, g := range p.Guardrails {
		if err := g.check(fmt.Sprintf("guardrails[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (p TechnicalPayload) Items() []model.ExtractedItem {
	var items []model.ExtractedItem
	for _, s := range p.Systems {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemIntegration,
			Category:   "system",
			Content:    s.Name,
			Payload:    map[string]any{"kind": s.Kind, "access": s.Access},
			Confidence: s.Confidence,
			Evidence:   s.evidence(),
		})
	}
	for _, in := range p.Integrations {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemIntegration,
			Content:    in.From + " -> " + in.To,
			Payload:    map[string]any{"from": in.From, "to": in.To, "mechanism": in.Mechanism},
			Confidence: in.Confidence,
			Evidence:   in.evidence(),
		})
	}
	for _, g := range p.Guardrails {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemGuardrail,
			Content:    g.Rule,
			Payload:    map[string]any{"rationale": g.Rationale},
			Confidence: g.Confidence,
			Evidence:   g.evidence(),
		})
	}
	return items
}

// --- signoff ---

type Decision struct {
	sourced
	Topic   string `json:"topic"`
	Outcome string `json:"outcome,omitempty"`
	Owner   string `json:"owner,omitempty"`
}

type OpenItem struct {
	Description string  `json:"description"`
	Owner       string  `json:"owner,omitempty"`
	Due         string  `json:"due,omitempty"`
	Confidence  float64 `json:"confidence"`
}

type Approval struct {
	sourced
	Approver string `json:"approver"`
	Scope    string `json:"scope,omitempty"`
}

type SignoffPayload struct {
	selfReport
	Decisions []Decision `json:"decisions"`
	OpenItems []OpenItem `json:"openItems"`
	Approvals []Approval `json:"approvals"`
}

func (SignoffPayload) Family() model.Family { return model.FamilySignoff }

func (p SignoffPayload) validate(present map[string]bool) error {
	if err := requireKeys(present, "decisions", "openItems", "approvals"); err != nil {
		return err
	}
	for i, d := range p.Decisions {
		if err := d.check(fmt.Sprintf("decisions[%d]", i)); err != nil {
			return err
		}
	}
	for i, o := range p.OpenItems {
		if o.Description == "" {
			return eris.Errorf("openItems[%d]: missing description", i)
		}
		if o.Confidence < 0 || o.Confidence > 1 {
			return eris.Errorf("openItems[%d]: confidence %.2f outside [0,1]", i, o.Confidence)
		}
	}
	for i, a := range p.Approvals {
		if err := a.check(fmt.Sprintf("approvals[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (p SignoffPayload) Items() []model.ExtractedItem {
	var items []model.ExtractedItem
	for _, d := range p.Decisions {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemDecision,
			Content:    d.Topic,
			Category:   d.Owner,
			Payload:    map[string]any{"outcome": d.Outcome},
			Confidence: d.Confidence,
			Evidence:   d.evidence(),
		})
	}
	for _, o := range p.OpenItems {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemDecision,
			Category:   "open_item",
			Content:    o.Description,
			Payload:    map[string]any{"owner": o.Owner, "due": o.Due},
			Confidence: o.Confidence,
		})
	}
	for _, a := range p.Approvals {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemDecision,
			Category:   "approval",
			Content:    a.Approver,
			Payload:    map[string]any{"scope": a.Scope},
			Confidence: a.Confidence,
			Evidence:   a.evidence(),
		})
	}
	return items
}

// --- persona ---

type Trait struct {
	sourced
	Trait      string `json:"trait"`
	Expression string `json:"expression,omitempty"`
}

type ToneGuideline struct {
	Situation  string  `json:"situation"`
	Guidance   string  `json:"guidance"`
	Confidence float64 `json:"confidence"`
}

type Prohibition struct {
	sourced
	Rule string `json:"rule"`
}

type PersonaPayload struct {
	selfReport
	PersonaName    string          `json:"personaName"`
	Traits         []Trait         `json:"traits"`
	ToneGuidelines []ToneGuideline `json:"toneGuidelines"`
	Prohibitions   []Prohibition   `json:"prohibitions"`
}

func (PersonaPayload) Family() model.Family { return model.FamilyPersona }

func (p PersonaPayload) validate(present map[string]bool) error {
	if err := requireKeys(present, "personaName", "traits"); err != nil {
		return err
	}
	for i, tr := range p.Traits {
		if err := tr.check(fmt.Sprintf("traits[%d]", i)); err != nil {
			return err
		}
	}
	for i, tg := range p.ToneGuidelines {
		if tg.Confidence < 0 || tg.Confidence > 1 {
			return eris.Errorf("toneGuidelines[%d]: confidence %.2f outside [0,1]", i, tg.Confidence)
		}
	}
	for i, pr := range p.Prohibitions {
		if err := pr.check(fmt.Sprintf("prohibitions[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (p PersonaPayload) Items() []model.ExtractedItem {
	var items []model.ExtractedItem
	for _, tr := range p.Traits {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemPersonaTrait,
			Content:    tr.Trait,
			Payload:    map[string]any{"expression": tr.Expression},
			Confidence: tr.Confidence,
			Evidence:   tr.evidence(),
		})
	}
	for _, tg := range p.ToneGuidelines {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemPersonaTrait,
			Category:   "tone",
			Content:    tg.Situation,
			Payload:    map[string]any{"guidance": tg.Guidance},
			Confidence: tg.Confidence,
		})
	}
	for _, pr := range p.Prohibitions {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemGuardrail,
			Category:   "prohibition",
			Content:    pr.Rule,
			Confidence: pr.Confidence,
			Evidence:   pr.evidence(),
		})
	}
	return items
}

// --- legacy (unknown family) ---

type LegacyItem struct {
	sourced
	Type    string `json:"type"`
	Content string `json:"content"`
}

type LegacyPayload struct {
	selfReport
	FamilyKey model.Family `json:"-"`
	Entries   []LegacyItem `json:"items"`
}

func (p LegacyPayload) Family() model.Family { return p.FamilyKey }

func (p LegacyPayload) validate(present map[string]bool) error {
	if err := requireKeys(present, "items"); err != nil {
		return err
	}
	for i, it := range p.Entries {
		if err := it.check(fmt.Sprintf("items[%d]", i)); err != nil {
			return err
		}
		if it.Content == "" {
			return eris.Errorf("items[%d]: missing content", i)
		}
	}
	return nil
}

func (p LegacyPayload) Items() []model.ExtractedItem {
	var items []model.ExtractedItem
	for _, it := range p.Entries {
		items = append(items, model.ExtractedItem{
			Type:       model.ItemType(it.Type),
			Content:    it.Content,
			Confidence: it.Confidence,
			Evidence:   it.evidence(),
		})
	}
	return items
}
