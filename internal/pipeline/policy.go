package pipeline

import (
	"math"

	"github.com/brightpath/onboard/internal/model"
)

// ConfidenceThreshold is the hard inclusion threshold for extracted
// items. Items below it are excluded from the validated result, not
// down-ranked. This is a product decision encoded once.
const ConfidenceThreshold = 0.50

// FilterByConfidence returns the items at or above the threshold and the
// number dropped.
func FilterByConfidence(items []model.ExtractedItem, threshold float64) ([]model.ExtractedItem, int) {
	if threshold <= 0 {
		threshold = ConfidenceThreshold
	}
	kept := make([]model.ExtractedItem, 0, len(items))
	for _, it := range items {
		if it.Confidence >= threshold {
			kept = append(kept, it)
		}
	}
	return kept, len(items) - len(kept)
}

// SectionSpec names one profile section, the sub-fields reviewers are
// expected to fill, and its weight in the overall score.
type SectionSpec struct {
	Name   string   `json:"name"`
	Weight int      `json:"weight"`
	Fields []string `json:"fields"`
}

// DefaultProfileSpec is the weighting used by handover scoring. Weights
// sum to 100.
var DefaultProfileSpec = []SectionSpec{
	{Name: "business_context", Weight: 30, Fields: []string{"problem", "objective", "success_criteria"}},
	{Name: "process", Weight: 30, Fields: []string{"name", "steps", "exceptions"}},
	{Name: "technical", Weight: 20, Fields: []string{"systems", "integrations", "guardrails"}},
	{Name: "persona", Weight: 10, Fields: []string{"name", "traits", "tone"}},
	{Name: "signoff", Weight: 10, Fields: []string{"decisions", "approvals"}},
}

// Completeness computes the weighted 0-100 completeness score of a
// profile: per section, the fraction of expected sub-fields that are
// non-empty, weighted and summed, rounded to the nearest integer.
// Sections absent from the profile contribute zero.
func Completeness(profile model.Profile, spec []SectionSpec) int {
	if len(spec) == 0 {
		spec = DefaultProfileSpec
	}

	byName := make(map[string]model.ProfileSection, len(profile.Sections))
	for _, s := range profile.Sections {
		byName[s.Name] = s
	}

	score := 0.0
	for _, sec := range spec {
		got, ok := byName[sec.Name]
		if !ok || len(sec.Fields) == 0 {
			continue
		}
		filled := 0
		for _, f := range sec.Fields {
			if got.Fields[f] != "" {
				filled++
			}
		}
		score += float64(sec.Weight) * float64(filled) / float64(len(sec.Fields))
	}

	return int(math.Round(score))
}

// CanSubmit reports whether a completeness score clears the review gate.
// A failing score blocks the "submit for review" transition; drafts are
// always saveable.
func CanSubmit(score, gate int) bool {
	return score >= gate
}
