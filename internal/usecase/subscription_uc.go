// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// ActivateFromPayment extends the user's active subscription or creates
	// one. Idempotent per payment: re-applying the same payment id is a no-op.
	ActivateFromPayment(ctx context.Context, userID, planID, paymentID string) (*model.UserSubscription, error)

	GetActive(ctx context.Context, userID string) (*model.UserSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]*model.UserSubscription, error)

	// ExpireDue flips active rows past their expiry; returns rows affected.
	ExpireDue(ctx context.Context) (int64, error)
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	plans repository.SubscriptionPlanRepository
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.SubscriptionPlanRepository, logger *zerolog.Logger) *subscriptionUC {
	compLog := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, plans: plans, log: &compLog}
}

func (u *subscriptionUC) ActivateFromPayment(ctx context.Context, userID, planID, paymentID string) (*model.UserSubscription, error) {
	// Each settlement grants exactly one entitlement row; the unique
	// payment_id column makes redelivery a re-read, never a second extension.
	existing, err := u.subs.FindByPaymentID(ctx, repository.NoTX, paymentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	active, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var sub *model.UserSubscription
	if active != nil {
		sub, err = model.NewSubscriptionExtension(uuid.NewString(), active, plan, paymentID)
	} else {
		sub, err = model.NewUserSubscription(uuid.NewString(), userID, plan, paymentID)
	}
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the insert race to a concurrent grant for this payment.
			return u.subs.FindByPaymentID(ctx, repository.NoTX, paymentID)
		}
		return nil, err
	}
	u.log.Info().Str("user_id", userID).Str("plan_id", planID).Str("payment_id", paymentID).Time("expires_at", sub.ExpiresAt).Msg("subscription granted")
	return sub, nil
}

func (u *subscriptionUC) GetActive(ctx context.Context, userID string) (*model.UserSubscription, error) {
	return u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.UserSubscription, error) {
	return u.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) ExpireDue(ctx context.Context) (int64, error) {
	return u.subs.ExpireOlderThan(ctx, repository.NoTX, time.Now())
}
