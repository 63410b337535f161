package prompt

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/brightpath/onboard/internal/model"
)

type fakeFinder struct {
	tpl *model.PromptTemplate
	err error
}

func (f *fakeFinder) FindActiveTemplate(_ context.Context, _ model.Family) (*model.PromptTemplate, error) {
	return f.tpl, f.err
}

func TestResolve_StoredTemplateWins(t *testing.T) {
	finder := &fakeFinder{tpl: &model.PromptTemplate{
		Family:      model.FamilyKickoff,
		Version:     4,
		Instruction: "custom instruction {{content}}",
		Model:       "claude-sonnet-4-5-20250929",
	}}
	r := NewResolver(finder, "claude-haiku-4-5-20251001")

	resolved := r.Resolve(context.Background(), model.FamilyKickoff)

	assert.Equal(t, model.SourceStore, resolved.Source)
	assert.Equal(t, 4, resolved.Version)
	assert.Equal(t, "custom instruction {{content}}", resolved.Instruction)
	assert.Equal(t, "claude-sonnet-4-5-20250929", resolved.Model)
}

func TestResolve_StoreErrorFallsBackToDefault(t *testing.T) {
	r := NewResolver(&fakeFinder{err: eris.New("store down")}, "claude-haiku-4-5-20251001")

	resolved := r.Resolve(context.Background(), model.FamilyProcess)

	assert.Equal(t, model.SourceDefault, resolved.Source)
	assert.Contains(t, resolved.Instruction, "process analyst")
	assert.Equal(t, "claude-haiku-4-5-20251001", resolved.Model)
}

func TestResolve_NoStoredTemplate(t *testing.T) {
	r := NewResolver(&fakeFinder{}, "claude-haiku-4-5-20251001")

	resolved := r.Resolve(context.Background(), model.FamilyPersona)

	assert.Equal(t, model.SourceDefault, resolved.Source)
	assert.Contains(t, resolved.Instruction, "conversation designer")
}

func TestResolve_UnknownFamilyUsesLegacy(t *testing.T) {
	r := NewResolver(nil, "claude-haiku-4-5-20251001")

	resolved := r.Resolve(context.Background(), model.Family("retrospective"))

	assert.Equal(t, model.SourceLegacy, resolved.Source)
	assert.Contains(t, resolved.Instruction, "working-session")
}

func TestResolve_StoredTemplateWithoutModelUsesDefault(t *testing.T) {
	finder := &fakeFinder{tpl: &model.PromptTemplate{
		Family:      model.FamilyTechnical,
		Version:     1,
		Instruction: "x",
	}}
	r := NewResolver(finder, "claude-haiku-4-5-20251001")

	resolved := r.Resolve(context.Background(), model.FamilyTechnical)

	assert.Equal(t, "claude-haiku-4-5-20251001", resolved.Model)
}
