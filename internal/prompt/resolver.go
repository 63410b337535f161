// Package prompt resolves and renders extraction instruction templates.
package prompt

import (
	"context"

	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/model"
)

// TemplateFinder abstracts the template store lookup used by the resolver.
type TemplateFinder interface {
	// FindActiveTemplate returns the active, highest-version template for
	// the family, or nil when none exists.
	FindActiveTemplate(ctx context.Context, family model.Family) (*model.PromptTemplate, error)
}

// Resolver picks the instruction template for a family: stored template
// first, compiled-in default second, generic legacy text for unknown
// families. Resolve never fails.
type Resolver struct {
	store        TemplateFinder
	defaultModel string
}

// NewResolver creates a Resolver. store may be nil, in which case only
// the compiled-in tiers are consulted.
func NewResolver(store TemplateFinder, defaultModel string) *Resolver {
	return &Resolver{store: store, defaultModel: defaultModel}
}

// Resolve returns the template serving the family, tagged with the tier
// that produced it. Store lookup failures degrade to defaults with a
// warning; an unrecognized family degrades to the legacy template.
func (r *Resolver) Resolve(ctx context.Context, family model.Family) model.ResolvedPrompt {
	if r.store != nil {
		tpl, err := r.store.FindActiveTemplate(ctx, family)
		if err != nil {
			zap.L().Warn("prompt: template store lookup failed, using defaults",
				zap.String("family", string(family)),
				zap.Error(err),
			)
		} else if tpl != nil {
			resolved := model.ResolvedPrompt{
				Family:      family,
				Instruction: tpl.Instruction,
				Model:       tpl.Model,
				Temperature: tpl.Temperature,
				MaxTokens:   tpl.MaxTokens,
				Source:      model.SourceStore,
				Version:     tpl.Version,
			}
			if resolved.Model == "" {
				resolved.Model = r.defaultModel
			}
			return resolved
		}
	}

	if text, ok := defaultTemplates[family]; ok {
		return model.ResolvedPrompt{
			Family:      family,
			Instruction: text,
			Model:       r.defaultModel,
			Source:      model.SourceDefault,
		}
	}

	zap.L().Warn("prompt: unrecognized extraction family, using legacy template",
		zap.String("family", string(family)),
	)
	return model.ResolvedPrompt{
		Family:      family,
		Instruction: legacyTemplate,
		Model:       r.defaultModel,
		Source:      model.SourceLegacy,
	}
}
