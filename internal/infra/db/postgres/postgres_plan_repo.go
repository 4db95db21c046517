package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
)

var (
	_ repository.SubscriptionPlanRepository = (*planRepo)(nil)
	_ repository.CreditPackageRepository    = (*packageRepo)(nil)
)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (id, name, duration_days, credits, price, currency, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET name=$2, duration_days=$3, credits=$4, price=$5, currency=$6;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.DurationDays, p.Credits, p.Price, p.Currency, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	const q = `SELECT id, name, duration_days, credits, price, currency, created_at FROM subscription_plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.SubscriptionPlan{}
	if err := row.Scan(&p.ID, &p.Name, &p.DurationDays, &p.Credits, &p.Price, &p.Currency, &p.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *planRepo) List(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const q = `SELECT id, name, duration_days, credits, price, currency, created_at FROM subscription_plans ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SubscriptionPlan
	for rows.Next() {
		p := new(model.SubscriptionPlan)
		if err := rows.Scan(&p.ID, &p.Name, &p.DurationDays, &p.Credits, &p.Price, &p.Currency, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

type packageRepo struct{ pool *pgxpool.Pool }

func NewPackageRepo(pool *pgxpool.Pool) *packageRepo {
	return &packageRepo{pool: pool}
}

func (r *packageRepo) Save(ctx context.Context, tx repository.Tx, p *model.CreditPackage) error {
	const q = `
INSERT INTO credit_packages (id, name, credits, price, currency, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET name=$2, credits=$3, price=$4, currency=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Credits, p.Price, p.Currency, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *packageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CreditPackage, error) {
	const q = `SELECT id, name, credits, price, currency, created_at FROM credit_packages WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.CreditPackage{}
	if err := row.Scan(&p.ID, &p.Name, &p.Credits, &p.Price, &p.Currency, &p.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *packageRepo) List(ctx context.Context, tx repository.Tx) ([]*model.CreditPackage, error) {
	const q = `SELECT id, name, credits, price, currency, created_at FROM credit_packages ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.CreditPackage
	for rows.Next() {
		p := new(model.CreditPackage)
		if err := rows.Scan(&p.ID, &p.Name, &p.Credits, &p.Price, &p.Currency, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
