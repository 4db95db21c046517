package model

import (
	"time"

	"ai-creative-suite/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // row persisted; awaiting gateway verdict
	PaymentStatusCompleted PaymentStatus = "completed" // gateway confirmed; grant dispatched
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway rejected or verification failed
	PaymentStatusCancelled PaymentStatus = "cancelled" // user/admin cancel before settlement
)

// Terminal reports whether no further automatic transition is accepted.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeCredits      PaymentType = "credits"
)

// Payment records one attempt to collect money through the gateway.
// Status transitions are monotonic: pending -> {completed, failed, cancelled}.
// A retry never reopens a terminal row; it creates a new one linked via Meta.
type Payment struct {
	ID           string // UUID
	UserID       string // UUID
	MerchantTxID string // ULID we generate and hand to the gateway; unique
	Amount       int64  // minor units, integer to avoid float errors
	Currency     string
	Type         PaymentType
	Status       PaymentStatus
	// PlanID is set for subscription payments, PackageID for credit top-ups.
	PlanID    *string
	PackageID *string
	// GatewayResponse holds the raw gateway payload verbatim for audit.
	GatewayResponse map[string]interface{}
	Meta            map[string]interface{}
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// GatewayEvent is the decoded, validated form of a gateway callback or a
// status-check response. Extra holds fields we do not interpret.
type GatewayEvent struct {
	MerchantTxID string
	State        PaymentStatus // verdict mapped onto our state machine
	Amount       int64
	ProviderRef  string
	Extra        map[string]interface{}
}

// NewPayment validates and constructs a pending payment row.
func NewPayment(id, userID, merchantTxID string, typ PaymentType, amount int64, currency string) (*Payment, error) {
	if id == "" || userID == "" || merchantTxID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if typ != PaymentTypeSubscription && typ != PaymentTypeCredits {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:           id,
		UserID:       userID,
		MerchantTxID: merchantTxID,
		Amount:       amount,
		Currency:     currency,
		Type:         typ,
		Status:       PaymentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
