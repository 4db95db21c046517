package repository

import (
	"context"

	"ai-creative-suite/internal/domain/model"
)

type SubscriptionPlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.SubscriptionPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	List(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}

type CreditPackageRepository interface {
	Save(ctx context.Context, tx Tx, p *model.CreditPackage) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CreditPackage, error)
	List(ctx context.Context, tx Tx) ([]*model.CreditPackage, error)
}
