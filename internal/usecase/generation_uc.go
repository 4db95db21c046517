// File: internal/usecase/generation_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
	"ai-creative-suite/internal/domain/ports/repository"
	"ai-creative-suite/internal/infra/metrics"
	"ai-creative-suite/internal/infra/worker"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// GenerationUseCase spends credits on creative jobs. Credits are deducted up
// front (the deduction carries the generation id) and refunded with a refund
// entry when the provider fails after the debit.
type GenerationUseCase interface {
	Request(ctx context.Context, userID string, kind model.GenerationKind, prompt, modelName string) (*model.Generation, error)
	Get(ctx context.Context, userID, id string) (*model.Generation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Generation, error)
}

type generationUC struct {
	gens     repository.GenerationRepository
	credits  CreditUseCase
	provider adapter.GenerationProvider
	pool     *worker.Pool
	costs    map[model.GenerationKind]int64
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewGenerationUseCase(
	gens repository.GenerationRepository,
	credits CreditUseCase,
	provider adapter.GenerationProvider,
	pool *worker.Pool,
	costs map[model.GenerationKind]int64,
	timeout time.Duration,
	logger *zerolog.Logger,
) *generationUC {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	compLog := logger.With().Str("component", "GenerationUC").Logger()
	return &generationUC{
		gens:     gens,
		credits:  credits,
		provider: provider,
		pool:     pool,
		costs:    costs,
		timeout:  timeout,
		log:      &compLog,
	}
}

func (u *generationUC) Request(ctx context.Context, userID string, kind model.GenerationKind, prompt, modelName string) (*model.Generation, error) {
	cost, ok := u.costs[kind]
	if !ok || cost <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !u.provider.Supports(kind) {
		return nil, domain.ErrInvalidArgument
	}

	g, err := model.NewGeneration(uuid.NewString(), userID, kind, prompt, modelName, cost)
	if err != nil {
		return nil, err
	}
	if err := u.gens.Save(ctx, repository.NoTX, g); err != nil {
		return nil, err
	}

	// Authoritative funds check happens here; an advisory HasCredits by the
	// handler earlier proves nothing by now.
	if _, err := u.credits.DeductCredits(ctx, userID, cost, fmt.Sprintf("%s generation", kind), &g.ID); err != nil {
		if derr := u.gens.UpdateStatus(ctx, repository.NoTX, g.ID, model.GenerationStatusFailed, "", "insufficient credits"); derr != nil {
			u.log.Error().Err(derr).Str("generation_id", g.ID).Msg("failed to mark unpaid generation")
		}
		return nil, err
	}

	if err := u.pool.Submit(func(jobCtx context.Context) error {
		return u.run(jobCtx, g)
	}); err != nil {
		// Queue saturated: refund immediately rather than strand the debit.
		u.refund(ctx, g)
		if derr := u.gens.UpdateStatus(ctx, repository.NoTX, g.ID, model.GenerationStatusFailed, "", "queue full"); derr != nil {
			u.log.Error().Err(derr).Str("generation_id", g.ID).Msg("failed to mark dropped generation")
		}
		return nil, err
	}
	metrics.IncGenerationSubmitted(string(kind))
	return g, nil
}

func (u *generationUC) run(ctx context.Context, g *model.Generation) error {
	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if err := u.gens.UpdateStatus(callCtx, repository.NoTX, g.ID, model.GenerationStatusRunning, "", ""); err != nil {
		u.log.Error().Err(err).Str("generation_id", g.ID).Msg("failed to mark generation running")
	}

	res, err := u.provider.Generate(callCtx, g.Kind, g.Prompt, g.Model)
	if err != nil {
		u.log.Warn().Err(err).Str("generation_id", g.ID).Msg("provider call failed")
		metrics.IncGenerationFinished(string(g.Kind), "failed")
		u.refund(ctx, g)
		return u.gens.UpdateStatus(ctx, repository.NoTX, g.ID, model.GenerationStatusFailed, "", err.Error())
	}

	metrics.IncGenerationFinished(string(g.Kind), "succeeded")
	return u.gens.UpdateStatus(ctx, repository.NoTX, g.ID, model.GenerationStatusSucceeded, res.ArtifactURL, "")
}

func (u *generationUC) refund(ctx context.Context, g *model.Generation) {
	if _, err := u.credits.RefundCredits(ctx, g.UserID, g.Cost, fmt.Sprintf("refund for failed %s generation", g.Kind), &g.ID); err != nil {
		u.log.Error().Err(err).Str("generation_id", g.ID).Msg("refund failed")
	}
}

func (u *generationUC) Get(ctx context.Context, userID, id string) (*model.Generation, error) {
	g, err := u.gens.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (u *generationUC) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	return u.gens.ListByUser(ctx, repository.NoTX, userID, limit, offset)
}
