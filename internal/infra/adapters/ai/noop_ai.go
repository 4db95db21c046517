package ai

import (
	"context"
	"time"

	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*NoopProvider)(nil)

// NoopProvider implements adapter.GenerationProvider for local/dev testing.
// It supports every kind and returns a placeholder artifact.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (a *NoopProvider) Name() string { return "noop" }

func (a *NoopProvider) Supports(model.GenerationKind) bool { return true }

func (a *NoopProvider) Generate(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*adapter.GenerationResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &adapter.GenerationResult{
		ArtifactURL: "https://example.test/artifacts/noop-" + string(kind),
		Model:       "noop-model",
	}, nil
}
