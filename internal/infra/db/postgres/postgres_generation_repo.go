package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
)

var _ repository.GenerationRepository = (*generationRepo)(nil)

type generationRepo struct{ pool *pgxpool.Pool }

func NewGenerationRepo(pool *pgxpool.Pool) *generationRepo {
	return &generationRepo{pool: pool}
}

const genCols = `id, user_id, kind, prompt, model, cost, status, artifact_url, error, created_at, updated_at`

func (r *generationRepo) Save(ctx context.Context, tx repository.Tx, g *model.Generation) error {
	const q = `
INSERT INTO generations (id, user_id, kind, prompt, model, cost, status, artifact_url, error, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET status=$7, artifact_url=$8, error=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, g.ID, g.UserID, g.Kind, g.Prompt, g.Model, g.Cost, g.Status, g.ArtifactURL, g.Error, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *generationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Generation, error) {
	const q = `SELECT ` + genCols + ` FROM generations WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	g := &model.Generation{}
	if err := row.Scan(&g.ID, &g.UserID, &g.Kind, &g.Prompt, &g.Model, &g.Cost, &g.Status, &g.ArtifactURL, &g.Error, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return g, nil
}

func (r *generationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit, offset int) ([]*model.Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + genCols + ` FROM generations WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit, offset)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Generation
	for rows.Next() {
		g := new(model.Generation)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Kind, &g.Prompt, &g.Model, &g.Cost, &g.Status, &g.ArtifactURL, &g.Error, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *generationRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.GenerationStatus, artifactURL, errMsg string) error {
	const q = `UPDATE generations SET status=$2, artifact_url=COALESCE(NULLIF($3,''), artifact_url), error=$4, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status, artifactURL, errMsg)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
