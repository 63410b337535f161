package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/brightpath/onboard/internal/pipeline"
	"github.com/brightpath/onboard/internal/prompt"
	"github.com/brightpath/onboard/internal/store"
	"github.com/brightpath/onboard/internal/tracker"
	anthropicpkg "github.com/brightpath/onboard/pkg/anthropic"
)

// pipelineEnv holds the initialized store, tracker and orchestrator
// needed by the extract/batch/serve commands.
type pipelineEnv struct {
	Store        store.Store
	Tracker      *tracker.Tracker
	Orchestrator *pipeline.Orchestrator
}

// Close flushes the tracker and releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Tracker != nil {
		pe.Tracker.Close(context.Background())
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "onboard.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, tracker, Anthropic client and the
// orchestrator. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (ONBOARD_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	tr := tracker.New(st, cfg.Tracker)
	client := anthropicpkg.NewClient(cfg.Anthropic.Key, cfg.Anthropic.RequestsPerSec)
	resolver := prompt.NewResolver(st, cfg.Anthropic.Model)
	orch := pipeline.NewOrchestrator(client, resolver, tr, cfg.Anthropic, cfg.Pipeline)

	return &pipelineEnv{
		Store:        st,
		Tracker:      tr,
		Orchestrator: orch,
	}, nil
}
