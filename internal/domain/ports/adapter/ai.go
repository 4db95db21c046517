package adapter

import (
	"context"

	"ai-creative-suite/internal/domain/model"
)

// GenerationResult is the provider's answer: an opaque artifact reference
// (URL or storage path) we store verbatim.
type GenerationResult struct {
	ArtifactURL string
	Model       string
}

// GenerationProvider is the port for image/video model backends. Providers
// are opaque collaborators: success/failure plus an artifact location.
type GenerationProvider interface {
	Name() string
	Supports(kind model.GenerationKind) bool
	Generate(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*GenerationResult, error)
}
