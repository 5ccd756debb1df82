package main

import (
	"context"
	"fmt"

	"nlsql/internal/config"
	"nlsql/internal/guard"
	"nlsql/internal/logging"
	"nlsql/internal/perception"
	"nlsql/internal/pipeline"
	"nlsql/internal/schema"
	"nlsql/internal/store"
)

// app is the per-process context: one dataset handle and one pipeline,
// shared by every request.
type app struct {
	dataset  *store.Dataset
	pipeline *pipeline.Pipeline
	traces   *perception.TraceRing
}

// newApp validates cfg and builds the Gemini-backed pipeline.
// A configuration error here is fatal at startup.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	gc := perception.DefaultGeminiConfig(cfg.LLM.APIKey)
	if cfg.LLM.Model != "" {
		gc.Model = cfg.LLM.Model
	}
	client, err := perception.NewGeminiClientWithConfig(ctx, gc)
	if err != nil {
		return nil, err
	}
	logging.Boot("text generation via %s model %s", cfg.LLM.Provider, client.Model())

	traces := perception.NewTraceRing(128)
	a, err := assemble(ctx, cfg, perception.NewTracingLLMClient(client, traces, cfg.GetLLMTimeouts()))
	if err != nil {
		return nil, err
	}
	a.traces = traces
	return a, nil
}

// assemble wires the pipeline around an already constructed model client.
func assemble(ctx context.Context, cfg *config.Config, llm perception.LLMClient) (*app, error) {
	s, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, err
	}

	ds, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	tr := perception.NewTranslator(llm, s, cfg.GetRowLimit())
	logging.Boot("pipeline ready (dataset=%s, tables=%d, row_limit=%d)", ds.Path(), len(s.Tables), cfg.GetRowLimit())

	return &app{
		dataset:  ds,
		pipeline: pipeline.New(tr, guard.NewExecutor(ds)),
	}, nil
}

// Close releases the dataset handle.
func (a *app) Close() error {
	return a.dataset.Close()
}
