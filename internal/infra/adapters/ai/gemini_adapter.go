// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"google.golang.org/genai"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*GeminiAdapter)(nil)

// GeminiAdapter implements adapter.GenerationProvider using the official SDK.
// Images go through Imagen, video through Veo (long-running, polled here).
type GeminiAdapter struct {
	client       *genai.Client
	imageModel   string
	videoModel   string
	pollInterval time.Duration
}

func NewGeminiAdapter(ctx context.Context, apiKey, imageModel, videoModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}
	if videoModel == "" {
		videoModel = "veo-2.0-generate-001"
	}
	return &GeminiAdapter{
		client:       c,
		imageModel:   imageModel,
		videoModel:   videoModel,
		pollInterval: 5 * time.Second,
	}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Supports(kind model.GenerationKind) bool {
	return kind == model.GenerationKindImage || kind == model.GenerationKindVideo
}

func (g *GeminiAdapter) Generate(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*adapter.GenerationResult, error) {
	switch kind {
	case model.GenerationKindImage:
		return g.generateImage(ctx, prompt, modelName)
	case model.GenerationKindVideo:
		return g.generateVideo(ctx, prompt, modelName)
	}
	return nil, domain.ErrInvalidArgument
}

func (g *GeminiAdapter) generateImage(ctx context.Context, prompt, modelName string) (*adapter.GenerationResult, error) {
	if modelName == "" {
		modelName = g.imageModel
	}
	resp, err := g.client.Models.GenerateImages(ctx, modelName, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("gemini: empty image response")
	}
	img := resp.GeneratedImages[0].Image
	if img.GCSURI != "" {
		return &adapter.GenerationResult{ArtifactURL: img.GCSURI, Model: modelName}, nil
	}
	// Inline bytes: hand back a data URL until an object store is wired.
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.ImageBytes)
	return &adapter.GenerationResult{ArtifactURL: url, Model: modelName}, nil
}

func (g *GeminiAdapter) generateVideo(ctx context.Context, prompt, modelName string) (*adapter.GenerationResult, error) {
	if modelName == "" {
		modelName = g.videoModel
	}
	op, err := g.client.Models.GenerateVideos(ctx, modelName, prompt, nil, nil)
	if err != nil {
		return nil, err
	}
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}
		op, err = g.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, err
		}
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, errors.New("gemini: empty video response")
	}
	return &adapter.GenerationResult{
		ArtifactURL: op.Response.GeneratedVideos[0].Video.URI,
		Model:       modelName,
	}, nil
}
