package payment

import (
	"context"
	"fmt"
	"sync"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and local
// development. Every intent succeeds on the first status check.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	intents map[string]int64 // merchantTxID -> amount
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{intents: make(map[string]int64)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) CreateIntent(ctx context.Context, merchantTxID string, amount int64, description string, meta map[string]interface{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[merchantTxID] = amount
	return "https://example.test/pay/" + merchantTxID, nil
}

func (g *NoopPaymentGateway) DecodeCallback(rawBody []byte, signatureHeader string) (*model.GatewayEvent, error) {
	return nil, fmt.Errorf("%w: noop gateway has no callbacks", domain.ErrInvalidArgument)
}

func (g *NoopPaymentGateway) CheckStatus(ctx context.Context, merchantTxID string) (*model.GatewayEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.intents[merchantTxID]
	if !ok {
		return nil, domain.ErrProviderFailed
	}
	return &model.GatewayEvent{
		MerchantTxID: merchantTxID,
		State:        model.PaymentStatusCompleted,
		Amount:       amount,
		ProviderRef:  "noop-ref-" + merchantTxID,
	}, nil
}
