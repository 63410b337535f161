package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/onboard/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "onboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteTemplateVersioning(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	first, err := store.SaveTemplate(ctx, model.PromptTemplate{
		Family:      model.FamilyKickoff,
		Instruction: "Extract kickoff facts.",
		Model:       "claude-sonnet-4-5-20250929",
		Active:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := store.SaveTemplate(ctx, model.PromptTemplate{
		Family:      model.FamilyKickoff,
		Instruction: "Extract kickoff facts, with evidence.",
		Model:       "claude-sonnet-4-5-20250929",
		Active:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	// Saving an active template deactivates the previous one.
	active, err := store.FindActiveTemplate(ctx, model.FamilyKickoff)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 2, active.Version)

	all, err := store.ListTemplates(ctx, model.FamilyKickoff)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[1].Active)
}

func TestSQLiteFindActiveTemplateMissing(t *testing.T) {
	store := newTestSQLite(t)

	tpl, err := store.FindActiveTemplate(context.Background(), model.FamilyPersona)
	require.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestSQLiteOperationSummary(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	err := store.AppendOperations(ctx, []model.OperationRecord{
		{
			Pipeline:     "session-extraction",
			Model:        "claude-sonnet-4-5-20250929",
			InputTokens:  1000,
			OutputTokens: 200,
			LatencyMs:    800,
			Success:      true,
			Metadata:     map[string]string{"fallback": "false"},
		},
		{
			Pipeline:     "session-extraction",
			Model:        "claude-sonnet-4-5-20250929",
			Success:      false,
			ErrorMessage: "Request timed out. Please retry.",
		},
	})
	require.NoError(t, err)

	got, err := store.SummarizeOperations(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.InDelta(t, 0.5, got.SuccessRate, 1e-9)
	assert.Equal(t, 1000, got.InputTokens)
	assert.Equal(t, 200, got.OutputTokens)
	assert.Equal(t, int64(400), got.AvgLatencyMs)
	assert.Greater(t, got.CostUSD, 0.0)
}

func TestSQLiteSummaryWindow(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	old := model.OperationRecord{
		Pipeline:  "session-extraction",
		Model:     "claude-sonnet-4-5-20250929",
		Success:   true,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	recent := model.OperationRecord{
		Pipeline: "session-extraction",
		Model:    "claude-sonnet-4-5-20250929",
		Success:  true,
	}
	require.NoError(t, store.AppendOperations(ctx, []model.OperationRecord{old, recent}))

	got, err := store.SummarizeOperations(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
}

func TestSQLiteErrorDedup(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	const msg = "Request timed out. Please retry."

	ev, err := store.FindOpenError(ctx, msg)
	require.NoError(t, err)
	assert.Nil(t, ev)

	created, err := store.CreateError(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Count)

	found, err := store.FindOpenError(ctx, msg)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	require.NoError(t, store.IncrementError(ctx, found.ID))

	found, err = store.FindOpenError(ctx, msg)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Count)
	assert.True(t, found.LastSeen.After(found.FirstSeen) || found.LastSeen.Equal(found.FirstSeen))
}

func TestSQLiteResolvedErrorNeverMerges(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	const msg = "Authentication failed."

	first, err := store.CreateError(ctx, msg)
	require.NoError(t, err)
	require.NoError(t, store.ResolveError(ctx, first.ID))

	// The resolved event is invisible to dedup lookups.
	open, err := store.FindOpenError(ctx, msg)
	require.NoError(t, err)
	assert.Nil(t, open)

	second, err := store.CreateError(ctx, msg)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	all, err := store.ListErrors(ctx, true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	openOnly, err := store.ListErrors(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	assert.Equal(t, second.ID, openOnly[0].ID)
}
