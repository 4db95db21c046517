package adapter

import (
	"context"

	"ai-creative-suite/internal/domain/model"
)

// PaymentGateway is the hex port for the hosted payment provider.
type PaymentGateway interface {
	Name() string

	// CreateIntent registers a payment on the provider side and returns the
	// redirect URL the client completes the payment on.
	CreateIntent(ctx context.Context, merchantTxID string, amount int64, description string, meta map[string]interface{}) (payURL string, err error)

	// DecodeCallback verifies the signature header against the raw body and
	// decodes the event. Returns domain.ErrInvalidSignature on mismatch; the
	// raw body must not be interpreted before verification succeeds.
	DecodeCallback(rawBody []byte, signatureHeader string) (*model.GatewayEvent, error)

	// CheckStatus polls the provider for a verdict on a pending payment.
	// The caller bounds the context; a timeout means "still pending".
	CheckStatus(ctx context.Context, merchantTxID string) (*model.GatewayEvent, error)
}
