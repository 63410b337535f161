package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/onboard/internal/model"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseSeedFile(t *testing.T) {
	path := writeSeed(t, `
templates:
  - family: kickoff
    instruction: |
      Extract stakeholders and KPIs from the kickoff session.
    model: claude-sonnet-4-5-20250929
    temperature: 0.2
    max_tokens: 4096
    active: true
  - family: persona
    instruction: Extract tone and escalation preferences.
`)

	seeds, err := parseSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	assert.Equal(t, model.FamilyKickoff, seeds[0].Family)
	assert.True(t, seeds[0].Active)
	require.NotNil(t, seeds[0].Temperature)
	assert.Equal(t, 0.2, *seeds[0].Temperature)
	assert.Equal(t, int64(4096), seeds[0].MaxTokens)

	assert.Equal(t, model.FamilyPersona, seeds[1].Family)
	assert.False(t, seeds[1].Active)
	assert.Nil(t, seeds[1].Temperature)
}

func TestParseSeedFileUnknownFamily(t *testing.T) {
	path := writeSeed(t, `
templates:
  - family: debrief
    instruction: anything
`)

	_, err := parseSeedFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown family")
}

func TestParseSeedFileMissingInstruction(t *testing.T) {
	path := writeSeed(t, `
templates:
  - family: kickoff
`)

	_, err := parseSeedFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruction is required")
}

func TestParseSeedFileEmpty(t *testing.T) {
	path := writeSeed(t, `templates: []`)

	_, err := parseSeedFile(path)
	assert.Error(t, err)
}

func TestParseSeedFileMissing(t *testing.T) {
	_, err := parseSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
