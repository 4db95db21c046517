package model

import (
	"time"

	"ai-creative-suite/internal/domain"
)

// SubscriptionPlan is a purchasable plan with a fixed duration, monthly
// credit allotment, and price in minor currency units.
type SubscriptionPlan struct {
	ID           string
	Name         string
	DurationDays int
	Credits      int64
	Price        int64
	Currency     string
	CreatedAt    time.Time
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, durationDays int, credits, price int64, currency string) (*SubscriptionPlan, error) {
	if id == "" || name == "" || durationDays <= 0 || credits < 0 || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:           id,
		Name:         name,
		DurationDays: durationDays,
		Credits:      credits,
		Price:        price,
		Currency:     currency,
		CreatedAt:    time.Now(),
	}, nil
}

// CreditPackage is a one-off credit top-up product.
type CreditPackage struct {
	ID        string
	Name      string
	Credits   int64
	Price     int64
	Currency  string
	CreatedAt time.Time
}

func (p *CreditPackage) IsZero() bool { return p == nil || p.ID == "" }

func NewCreditPackage(id, name string, credits, price int64, currency string) (*CreditPackage, error) {
	if id == "" || name == "" || credits <= 0 || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &CreditPackage{
		ID:        id,
		Name:      name,
		Credits:   credits,
		Price:     price,
		Currency:  currency,
		CreatedAt: time.Now(),
	}, nil
}
