package model

import (
	"time"

	"ai-creative-suite/internal/domain"
)

type GenerationKind string

const (
	GenerationKindImage   GenerationKind = "image"
	GenerationKindVideo   GenerationKind = "video"
	GenerationKindUpscale GenerationKind = "upscale"
)

type GenerationStatus string

const (
	GenerationStatusQueued    GenerationStatus = "queued"
	GenerationStatusRunning   GenerationStatus = "running"
	GenerationStatusSucceeded GenerationStatus = "succeeded"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// Generation is one creative job the user paid credits for. ArtifactURL is
// whatever reference the provider/storage hands back; we treat it as opaque.
type Generation struct {
	ID          string // UUID
	UserID      string // UUID
	Kind        GenerationKind
	Prompt      string
	Model       string
	Cost        int64 // credits deducted up front
	Status      GenerationStatus
	ArtifactURL string
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewGeneration(id, userID string, kind GenerationKind, prompt, model string, cost int64) (*Generation, error) {
	if id == "" || userID == "" || prompt == "" || cost <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch kind {
	case GenerationKindImage, GenerationKindVideo, GenerationKindUpscale:
	default:
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Generation{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Prompt:    prompt,
		Model:     model,
		Cost:      cost,
		Status:    GenerationStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
