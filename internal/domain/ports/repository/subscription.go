package repository

import (
	"context"
	"time"

	"ai-creative-suite/internal/domain/model"
)

type SubscriptionRepository interface {
	// Save inserts one entitlement row per settled payment; a second insert
	// for the same payment id reports ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, s *model.UserSubscription) error
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)
	// FindByPaymentID answers whether a settlement's grant already landed.
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.UserSubscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.UserSubscription, error)

	// ExpireOlderThan marks active rows whose expiry has passed; returns the
	// number of rows transitioned.
	ExpireOlderThan(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
