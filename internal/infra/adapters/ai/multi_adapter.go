// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"strings"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*MultiProvider)(nil)

// MultiProvider routes a generation to a concrete provider by model prefix,
// falling back to the first provider that supports the kind.
type MultiProvider struct {
	defaultProvider string
	byProvider      map[string]adapter.GenerationProvider
	providers       []adapter.GenerationProvider // stable fallback order
}

func NewMultiProvider(defaultProvider string, providers ...adapter.GenerationProvider) *MultiProvider {
	byProvider := make(map[string]adapter.GenerationProvider, len(providers))
	for _, p := range providers {
		byProvider[p.Name()] = p
	}
	return &MultiProvider{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		providers:       providers,
	}
}

func (m *MultiProvider) Name() string { return "multi" }

func (m *MultiProvider) Supports(kind model.GenerationKind) bool {
	for _, p := range m.providers {
		if p.Supports(kind) {
			return true
		}
	}
	return false
}

func (m *MultiProvider) resolve(kind model.GenerationKind, modelName string) adapter.GenerationProvider {
	l := strings.ToLower(modelName)
	switch {
	case strings.HasPrefix(l, "gemini"), strings.HasPrefix(l, "imagen"), strings.HasPrefix(l, "veo"):
		if p := m.byProvider["gemini"]; p != nil && p.Supports(kind) {
			return p
		}
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "dall-e"):
		if p := m.byProvider["openai"]; p != nil && p.Supports(kind) {
			return p
		}
	}
	if p := m.byProvider[m.defaultProvider]; p != nil && p.Supports(kind) {
		return p
	}
	for _, p := range m.providers {
		if p.Supports(kind) {
			return p
		}
	}
	return nil
}

func (m *MultiProvider) Generate(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*adapter.GenerationResult, error) {
	p := m.resolve(kind, modelName)
	if p == nil {
		return nil, domain.ErrInvalidArgument
	}
	return p.Generate(ctx, kind, prompt, modelName)
}
