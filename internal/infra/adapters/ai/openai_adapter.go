package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.GenerationProvider = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.GenerationProvider using the Images API.
// Upscales are rendered as a fresh generation at the larger size.
type OpenAIAdapter struct {
	client       openai.Client
	defaultModel string
}

func NewOpenAIAdapter(apiKey, defaultModel string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if defaultModel == "" {
		defaultModel = "dall-e-3"
	}
	return &OpenAIAdapter{
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
	}, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) Supports(kind model.GenerationKind) bool {
	return kind == model.GenerationKindImage || kind == model.GenerationKindUpscale
}

func (o *OpenAIAdapter) Generate(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*adapter.GenerationResult, error) {
	if !o.Supports(kind) {
		return nil, domain.ErrInvalidArgument
	}
	if modelName == "" {
		modelName = o.defaultModel
	}

	size := openai.ImageGenerateParamsSize1024x1024
	if kind == model.GenerationKindUpscale {
		size = openai.ImageGenerateParamsSize1792x1024
	}

	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(modelName),
		N:              openai.Int(1),
		Size:           size,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, errors.New("openai: empty image response")
	}
	return &adapter.GenerationResult{
		ArtifactURL: resp.Data[0].URL,
		Model:       modelName,
	}, nil
}
