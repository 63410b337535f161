package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile(t *testing.T) {
	path := writeInput(t, t.TempDir(), "profile.json", `{
		"sections": [
			{"name": "business_context", "fields": {"problem": "invoice backlog", "objective": "automate triage"}}
		]
	}`)

	profile, err := loadProfile(path)
	require.NoError(t, err)
	require.Len(t, profile.Sections, 1)
	assert.Equal(t, 2, profile.Sections[0].Populated())
}

func TestLoadProfileEmptySections(t *testing.T) {
	path := writeInput(t, t.TempDir(), "profile.json", `{"sections": []}`)

	_, err := loadProfile(path)
	assert.Error(t, err)
}

func TestLoadProfileBadJSON(t *testing.T) {
	path := writeInput(t, t.TempDir(), "profile.json", `{`)

	_, err := loadProfile(path)
	assert.Error(t, err)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
