package model

import (
	"time"

	"ai-creative-suite/internal/domain"
)

type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"   // credits bought through the gateway
	TransactionTypeBonus      TransactionType = "bonus"      // promotional / signup grant
	TransactionTypeDeduction  TransactionType = "deduction"  // spent on a generation
	TransactionTypeAdjustment TransactionType = "adjustment" // manual admin correction
	TransactionTypeRefund     TransactionType = "refund"     // returned after a failed generation
)

// Transaction is a single append-only ledger entry. Amount is signed:
// positive rows credit the user, negative rows debit them. Rows are never
// updated or deleted; the balance must always equal the sum of a user's rows.
type Transaction struct {
	ID          string // UUID
	UserID      string // UUID
	Type        TransactionType
	Amount      int64 // signed; positive=credit, negative=debit
	Description string
	// GenerationID links a deduction/refund to the generation it paid for.
	GenerationID *string
	// SourcePaymentID links a purchase grant to the payment that triggered it.
	// Unique when set: the idempotency key that makes double-grant impossible.
	SourcePaymentID *string
	CreatedAt       time.Time
}

// NewTransaction validates and constructs a ledger entry.
func NewTransaction(id, userID string, typ TransactionType, amount int64, description string) (*Transaction, error) {
	if id == "" || userID == "" || amount == 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case TransactionTypePurchase, TransactionTypeBonus, TransactionTypeRefund:
		if amount < 0 {
			return nil, domain.ErrInvalidArgument
		}
	case TransactionTypeDeduction:
		if amount > 0 {
			return nil, domain.ErrInvalidArgument
		}
	case TransactionTypeAdjustment:
		// adjustments may go either way
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Transaction{
		ID:          id,
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}
