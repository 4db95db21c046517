package model

import (
	"time"

	"ai-creative-suite/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// UserSubscription is one user's entitlement window for a plan.
type UserSubscription struct {
	ID        string // UUID
	UserID    string // UUID
	PlanID    string // UUID
	Status    SubscriptionStatus
	StartAt   time.Time
	ExpiresAt time.Time
	// PaymentID records the settlement that granted this window. One row per
	// settled payment (unique column), so grant evidence survives extensions.
	PaymentID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserSubscription creates an active subscription running from now.
func NewUserSubscription(id, userID string, plan *SubscriptionPlan, paymentID string) (*UserSubscription, error) {
	if id == "" || userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &UserSubscription{
		ID:        id,
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    SubscriptionStatusActive,
		StartAt:   now,
		ExpiresAt: now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		PaymentID: paymentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewSubscriptionExtension creates the follow-on window for a payment that
// extends an existing subscription: a fresh row starting where the previous
// one ends (or now, when it already lapsed). The previous row is not touched.
func NewSubscriptionExtension(id string, prev *UserSubscription, plan *SubscriptionPlan, paymentID string) (*UserSubscription, error) {
	if id == "" || prev == nil || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	start := prev.ExpiresAt
	if start.Before(now) {
		start = now
	}
	return &UserSubscription{
		ID:        id,
		UserID:    prev.UserID,
		PlanID:    plan.ID,
		Status:    SubscriptionStatusActive,
		StartAt:   start,
		ExpiresAt: start.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		PaymentID: paymentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
