// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase lists the purchasable catalog: subscription plans and one-off
// credit packages.
type PlanUseCase interface {
	ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error)
	ListPackages(ctx context.Context) ([]*model.CreditPackage, error)
}

type planUC struct {
	plans    repository.SubscriptionPlanRepository
	packages repository.CreditPackageRepository
}

func NewPlanUseCase(plans repository.SubscriptionPlanRepository, packages repository.CreditPackageRepository) *planUC {
	return &planUC{plans: plans, packages: packages}
}

func (u *planUC) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return u.plans.List(ctx, repository.NoTX)
}

func (u *planUC) ListPackages(ctx context.Context) ([]*model.CreditPackage, error) {
	return u.packages.List(ctx, repository.NoTX)
}
