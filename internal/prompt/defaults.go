package prompt

import "github.com/brightpath/onboard/internal/model"

// Default instruction templates, one per extraction family. Slots:
// {{content_noun}}, {{locator_noun}} and {{locator_hint}} adapt wording
// for recordings vs documents; {{content}} receives the sanitized payload. Stored templates
// use the same slot names.
//
// Every template instructs the model to self-report low signal through a
// top-level "warnings" array instead of inventing facts.

const kickoffTemplate = `You are an onboarding analyst reviewing a Digital Employee kickoff {{content_noun}}.

Extract the business context discussed in the {{content_noun}}. Return a single valid JSON object:
{
  "businessContext": {"problem": "...", "objective": "...", "successCriteria": ["..."]},
  "stakeholders": [{"name": "...", "role": "...", "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "kpis": [{"name": "...", "target": "...", "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "warnings": ["..."]
}

Every stakeholder and KPI must carry a supporting quote, its {{locator_noun}}, and a confidence between 0.0 and 1.0. {{locator_hint}} If the {{content_noun}} contains too little signal, return empty arrays and explain why in "warnings".

{{content_noun_title}} content:
{{content}}`

const processTemplate = `You are a process analyst reviewing a Digital Employee process-design {{content_noun}}.

Map the business process discussed in the {{content_noun}}. Return a single valid JSON object:
{
  "processName": "...",
  "steps": [{"order": 1, "name": "...", "actor": "...", "inputs": ["..."], "outputs": ["..."], "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "exceptions": [{"trigger": "...", "handling": "...", "quote": "...", "confidence": 0.0}],
  "warnings": ["..."]
}

Order steps as the participants describe them, not as they appear in the {{content_noun}}. {{locator_hint}} Confidence is 0.0-1.0 per item. Report missing signal in "warnings" rather than guessing.

{{content_noun_title}} content:
{{content}}`

const technicalTemplate = `You are a solutions engineer reviewing a Digital Employee technical {{content_noun}}.

Extract the technical landscape discussed in the {{content_noun}}. Return a single valid JSON object:
{
  "systems": [{"name": "...", "kind": "...", "access": "...", "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "integrations": [{"from": "...", "to": "...", "mechanism": "...", "quote": "...", "confidence": 0.0}],
  "guardrails": [{"rule": "...", "rationale": "...", "quote": "...", "confidence": 0.0}],
  "warnings": ["..."]
}

{{locator_hint}} Confidence is 0.0-1.0 per item. Use "warnings" for gaps instead of fabricating systems.

{{content_noun_title}} content:
{{content}}`

const signoffTemplate = `You are an onboarding analyst reviewing a Digital Employee sign-off {{content_noun}}.

Capture decisions and open items from the {{content_noun}}. Return a single valid JSON object:
{
  "decisions": [{"topic": "...", "outcome": "...", "owner": "...", "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "openItems": [{"description": "...", "owner": "...", "due": "...", "confidence": 0.0}],
  "approvals": [{"approver": "...", "scope": "...", "quote": "...", "confidence": 0.0}],
  "warnings": ["..."]
}

{{locator_hint}} Confidence is 0.0-1.0 per item. Report missing signal in "warnings".

{{content_noun_title}} content:
{{content}}`

const personaTemplate = `You are a conversation designer reviewing a Digital Employee persona {{content_noun}}.

Extract the persona definition discussed in the {{content_noun}}. Return a single valid JSON object:
{
  "personaName": "...",
  "traits": [{"trait": "...", "expression": "...", "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "toneGuidelines": [{"situation": "...", "guidance": "...", "confidence": 0.0}],
  "prohibitions": [{"rule": "...", "quote": "...", "confidence": 0.0}],
  "warnings": ["..."]
}

{{locator_hint}} Confidence is 0.0-1.0 per item. Use "warnings" for gaps.

{{content_noun_title}} content:
{{content}}`

// legacyTemplate serves unrecognized family keys. An unknown family is a
// product/config bug, not a reason to abort an in-flight job.
const legacyTemplate = `You are an analyst reviewing a Digital Employee working-session {{content_noun}}.

Extract every concrete business or technical fact from the {{content_noun}}. Return a single valid JSON object:
{
  "items": [{"type": "...", "content": "...", "quote": "...", "{{locator_noun}}": "...", "confidence": 0.0}],
  "warnings": ["..."]
}

{{locator_hint}} Confidence is 0.0-1.0 per item. Use "warnings" when signal is thin.

{{content_noun_title}} content:
{{content}}`

var defaultTemplates = map[model.Family]string{
	model.FamilyKickoff:   kickoffTemplate,
	model.FamilyProcess:   processTemplate,
	model.FamilyTechnical: technicalTemplate,
	model.FamilySignoff:   signoffTemplate,
	model.FamilyPersona:   personaTemplate,
}
