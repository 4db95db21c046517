package repository

import (
	"context"

	"ai-creative-suite/internal/domain/model"
)

type GenerationRepository interface {
	Save(ctx context.Context, tx Tx, g *model.Generation) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Generation, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit, offset int) ([]*model.Generation, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.GenerationStatus, artifactURL, errMsg string) error
}
