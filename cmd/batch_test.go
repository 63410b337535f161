package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/onboard/internal/model"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "b-session.txt", "b")
	writeInput(t, dir, "a-session.md", "a")
	writeInput(t, dir, "notes.pdf", "skip")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := collectInputs(dir, 0)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a-session.md"), files[0])
	assert.Equal(t, filepath.Join(dir, "b-session.txt"), files[1])
}

func TestCollectInputsLimit(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "one.txt", "1")
	writeInput(t, dir, "two.txt", "2")
	writeInput(t, dir, "three.txt", "3")

	files, err := collectInputs(dir, 2)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCollectInputsMissingDir(t *testing.T) {
	_, err := collectInputs(filepath.Join(t.TempDir(), "absent"), 0)
	assert.Error(t, err)
}

func TestProcessBatchWritesResults(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "kickoff-1.txt", "transcript one")
	writeInput(t, dir, "kickoff-2.txt", "transcript two")
	files, err := collectInputs(dir, 0)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []string
	err = processBatch(context.Background(), files, dir, 2, model.FamilyKickoff, model.ContentTranscript,
		func(_ context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error) {
			mu.Lock()
			seen = append(seen, req.ContentLabel)
			mu.Unlock()
			assert.Equal(t, model.FamilyKickoff, req.Family)
			assert.Equal(t, model.ContentTranscript, req.ContentType)
			return &model.ExtractionResult{
				Family: model.FamilyKickoff,
				Items:  []model.ExtractedItem{{Type: model.ItemStakeholder, Content: req.Content, Confidence: 0.8}},
			}, nil
		})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"kickoff-1", "kickoff-2"}, seen)
	assert.FileExists(t, filepath.Join(dir, "kickoff-1.result.json"))
	assert.FileExists(t, filepath.Join(dir, "kickoff-2.result.json"))
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "ok.txt", "fine")
	writeInput(t, dir, "broken.txt", "bad")
	files, err := collectInputs(dir, 0)
	require.NoError(t, err)

	calls := 0
	var mu sync.Mutex
	err = processBatch(context.Background(), files, dir, 1, model.FamilyProcess, model.ContentTranscript,
		func(_ context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			if req.ContentLabel == "broken" {
				return nil, assert.AnError
			}
			return &model.ExtractionResult{Family: model.FamilyProcess}, nil
		})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.FileExists(t, filepath.Join(dir, "ok.result.json"))
	assert.NoFileExists(t, filepath.Join(dir, "broken.result.json"))
}

func TestParseContentType(t *testing.T) {
	for _, raw := range []string{"audio", "video", "document", "transcript"} {
		ct, err := parseContentType(raw)
		require.NoError(t, err)
		assert.Equal(t, model.ContentType(raw), ct)
	}

	// A typo must fail fast instead of silently rendering recording nouns.
	_, err := parseContentType("documnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")

	_, err = parseContentType("")
	assert.Error(t, err)
}

func TestLabelForFile(t *testing.T) {
	assert.Equal(t, "kickoff-session", labelForFile("/data/kickoff-session.txt"))
	assert.Equal(t, "notes", labelForFile("notes.md"))
	assert.Equal(t, "plain", labelForFile("plain"))
}
