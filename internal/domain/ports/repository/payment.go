package repository

import (
	"context"
	"time"

	"ai-creative-suite/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByMerchantTxID(ctx context.Context, tx Tx, merchantTxID string) (*model.Payment, error)

	// UpdateStatusIfPending atomically transitions a payment out of 'pending'.
	// Returns false when the row was already terminal: the caller lost the
	// race (or the event is a redelivery) and must not run the grant.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayResponse map[string]interface{}, completedAt *time.Time) (bool, error)

	// ListPendingOlderThan feeds the reconciler with stale pending rows.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// ListCompletedWithoutGrant returns completed payments whose entitlement
	// never landed: credit payments with no ledger transaction referencing
	// them, subscription payments with no entitlement row (the "completed,
	// grant pending" window the sweeper must close).
	ListCompletedWithoutGrant(ctx context.Context, tx Tx, limit int) ([]*model.Payment, error)

	ListByUser(ctx context.Context, tx Tx, userID string, limit, offset int) ([]*model.Payment, error)
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
