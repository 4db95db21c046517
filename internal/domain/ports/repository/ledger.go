package repository

import (
	"context"

	"ai-creative-suite/internal/domain/model"
)

// LedgerRepository persists append-only credit transactions and the cached
// per-user balance rollup. Mutations to a user's balance must be serialized
// by the implementation (guarded conditional updates inside the caller's tx).
type LedgerRepository interface {
	// InsertTransaction appends a ledger entry. A duplicate SourcePaymentID
	// must fail with domain.ErrAlreadyExists (unique constraint).
	InsertTransaction(ctx context.Context, tx Tx, t *model.Transaction) error

	// CreditBalance applies a positive delta to current/total_earned,
	// creating the balance row on first use.
	CreditBalance(ctx context.Context, tx Tx, userID string, amount int64) (*model.Balance, error)

	// DebitBalance applies a negative delta guarded on sufficient funds:
	// returns domain.ErrInsufficientCredits without any change when the
	// conditional update matches no row.
	DebitBalance(ctx context.Context, tx Tx, userID string, amount int64) (*model.Balance, error)

	GetBalance(ctx context.Context, tx Tx, userID string) (*model.Balance, error)

	// ListTransactions returns a user's entries, most recent first.
	ListTransactions(ctx context.Context, tx Tx, userID string, limit, offset int) ([]*model.Transaction, error)

	// FindBySourcePayment resolves the grant entry for a payment, if any.
	FindBySourcePayment(ctx context.Context, tx Tx, paymentID string) (*model.Transaction, error)

	// SumForUser recomputes the balance from the ledger (reconciliation).
	SumForUser(ctx context.Context, tx Tx, userID string) (int64, error)
}
