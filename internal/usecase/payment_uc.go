// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
	"ai-creative-suite/internal/domain/ports/repository"
	"ai-creative-suite/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase is the settlement engine. Webhook callbacks and status polls
// converge on one settle path; the transition out of 'pending' is a guarded
// conditional update, so only one caller ever runs the grant.
type PaymentUseCase interface {
	// Initiate validates the amount against the plan/package price, registers
	// the intent with the gateway, persists a pending row, and returns the
	// redirect URL.
	Initiate(ctx context.Context, userID string, typ model.PaymentType, productID string, amount int64, description string) (*model.Payment, string, error)

	// HandleCallback verifies and decodes a gateway webhook delivery and
	// settles the referenced payment. Redeliveries of settled payments are
	// accepted as no-ops.
	HandleCallback(ctx context.Context, rawBody []byte, signatureHeader string) (*model.Payment, error)

	// CheckStatus returns the current record; for pending payments it may
	// poll the gateway and settle on a verdict. A poll timeout leaves the
	// payment pending, never failed.
	CheckStatus(ctx context.Context, merchantTxID string) (*model.Payment, error)

	// Cancel transitions a pending payment to cancelled.
	Cancel(ctx context.Context, userID, merchantTxID string) (*model.Payment, error)

	// Retry creates a fresh pending payment for a failed/cancelled one,
	// linked through meta. Terminal rows are never reopened.
	Retry(ctx context.Context, userID, merchantTxID string) (*model.Payment, string, error)

	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error)
	SumByPeriod(ctx context.Context, period string) (int64, error)
}

// Locker serializes gateway polling per payment so the reconciler and a user
// status request do not both hit the provider. Settlement correctness does
// not depend on it; the conditional update is the authority.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type paymentUC struct {
	payments repository.PaymentRepository
	plans    repository.SubscriptionPlanRepository
	packages repository.CreditPackageRepository
	credits  CreditUseCase
	subs     SubscriptionUseCase
	gateway  adapter.PaymentGateway
	locker   Locker
	pollWait time.Duration
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	packages repository.CreditPackageRepository,
	credits CreditUseCase,
	subs SubscriptionUseCase,
	gateway adapter.PaymentGateway,
	locker Locker,
	pollTimeout time.Duration,
	logger *zerolog.Logger,
) *paymentUC {
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	compLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments: payments,
		plans:    plans,
		packages: packages,
		credits:  credits,
		subs:     subs,
		gateway:  gateway,
		locker:   locker,
		pollWait: pollTimeout,
		log:      &compLog,
	}
}

func (u *paymentUC) Initiate(ctx context.Context, userID string, typ model.PaymentType, productID string, amount int64, description string) (*model.Payment, string, error) {
	return u.initiate(ctx, userID, typ, productID, amount, description, nil)
}

// initiate persists the pending row in a single write; extra meta (the retry
// link) lands atomically with it.
func (u *paymentUC) initiate(ctx context.Context, userID string, typ model.PaymentType, productID string, amount int64, description string, meta map[string]interface{}) (*model.Payment, string, error) {
	if userID == "" || productID == "" {
		return nil, "", domain.ErrInvalidArgument
	}

	// Exact price match is checked before anything is written or sent to the
	// gateway; a mismatch leaves no trace.
	var credits int64
	var currency string
	switch typ {
	case model.PaymentTypeSubscription:
		plan, err := u.plans.FindByID(ctx, repository.NoTX, productID)
		if err != nil {
			return nil, "", err
		}
		if plan.Price != amount {
			return nil, "", domain.ErrAmountMismatch
		}
		currency = plan.Currency
	case model.PaymentTypeCredits:
		pkg, err := u.packages.FindByID(ctx, repository.NoTX, productID)
		if err != nil {
			return nil, "", err
		}
		if pkg.Price != amount {
			return nil, "", domain.ErrAmountMismatch
		}
		credits = pkg.Credits
		currency = pkg.Currency
	default:
		return nil, "", domain.ErrInvalidArgument
	}

	merchantTxID := ulid.Make().String()
	payURL, err := u.gateway.CreateIntent(ctx, merchantTxID, amount, description, map[string]interface{}{
		"user_id": userID,
		"type":    string(typ),
	})
	if err != nil {
		return nil, "", err
	}

	p, err := model.NewPayment(uuid.NewString(), userID, merchantTxID, typ, amount, currency)
	if err != nil {
		return nil, "", err
	}
	p.Description = description
	switch typ {
	case model.PaymentTypeSubscription:
		p.PlanID = &productID
	case model.PaymentTypeCredits:
		p.PackageID = &productID
		p.Meta = map[string]interface{}{"credits": credits}
	}
	for k, v := range meta {
		if p.Meta == nil {
			p.Meta = map[string]interface{}{}
		}
		p.Meta[k] = v
	}

	// Persist before returning the URL: even if the client never comes back,
	// the row exists for reconciliation.
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().Str("payment_id", p.ID).Str("merchant_tx_id", merchantTxID).Int64("amount", amount).Msg("payment initiated")
	return p, payURL, nil
}

func (u *paymentUC) HandleCallback(ctx context.Context, rawBody []byte, signatureHeader string) (*model.Payment, error) {
	event, err := u.gateway.DecodeCallback(rawBody, signatureHeader)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			metrics.IncWebhookRejected("signature")
			u.log.Warn().Msg("webhook signature rejected")
		}
		return nil, err
	}
	return u.settle(ctx, event)
}

func (u *paymentUC) CheckStatus(ctx context.Context, merchantTxID string) (*model.Payment, error) {
	p, err := u.payments.FindByMerchantTxID(ctx, repository.NoTX, merchantTxID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownTransaction
		}
		return nil, err
	}
	if p.Status.Terminal() {
		return p, nil
	}

	// One poller per payment at a time; if somebody else holds the lock the
	// current record is good enough.
	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "poll:"+merchantTxID, u.pollWait)
		if err != nil {
			return p, nil
		}
		defer func() { _ = u.locker.Unlock(ctx, "poll:"+merchantTxID, token) }()
	}

	pollCtx, cancel := context.WithTimeout(ctx, u.pollWait)
	defer cancel()
	event, err := u.gateway.CheckStatus(pollCtx, merchantTxID)
	if err != nil {
		// Unknown verdict (timeout included) keeps the payment pending; a
		// later poll or callback decides.
		u.log.Warn().Err(err).Str("merchant_tx_id", merchantTxID).Msg("status poll inconclusive")
		return p, nil
	}
	return u.settle(ctx, event)
}

func (u *paymentUC) Cancel(ctx context.Context, userID, merchantTxID string) (*model.Payment, error) {
	p, err := u.findOwned(ctx, userID, merchantTxID)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, domain.ErrPaymentTerminal
	}
	return u.settle(ctx, &model.GatewayEvent{
		MerchantTxID: merchantTxID,
		State:        model.PaymentStatusCancelled,
		Extra:        map[string]interface{}{"cancelled_by": "user"},
	})
}

func (u *paymentUC) Retry(ctx context.Context, userID, merchantTxID string) (*model.Payment, string, error) {
	old, err := u.findOwned(ctx, userID, merchantTxID)
	if err != nil {
		return nil, "", err
	}
	switch old.Status {
	case model.PaymentStatusFailed, model.PaymentStatusCancelled:
	default:
		return nil, "", domain.ErrInvalidArgument
	}

	productID := ""
	if old.PlanID != nil {
		productID = *old.PlanID
	} else if old.PackageID != nil {
		productID = *old.PackageID
	}
	return u.initiate(ctx, userID, old.Type, productID, old.Amount, old.Description, map[string]interface{}{"retry_of": old.ID})
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	return u.payments.ListByUser(ctx, repository.NoTX, userID, limit, offset)
}

func (u *paymentUC) SumByPeriod(ctx context.Context, period string) (int64, error) {
	return u.payments.SumByPeriod(ctx, repository.NoTX, period)
}

// settle is the single transition path shared by callbacks, status polls, and
// cancellation. It is safe to call concurrently for the same payment: the
// guarded update picks exactly one winner, everyone else no-ops.
func (u *paymentUC) settle(ctx context.Context, event *model.GatewayEvent) (*model.Payment, error) {
	p, err := u.payments.FindByMerchantTxID(ctx, repository.NoTX, event.MerchantTxID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Gateway/record desync. Logged and surfaced; manual
			// reconciliation, never an automatic retry on our side.
			metrics.IncWebhookRejected("unknown_transaction")
			u.log.Error().Str("merchant_tx_id", event.MerchantTxID).Msg("callback for unknown transaction")
			return nil, domain.ErrUnknownTransaction
		}
		return nil, err
	}

	if p.Status.Terminal() {
		// At-least-once delivery: the redelivered event is acknowledged
		// without re-running the grant.
		u.log.Debug().Str("payment_id", p.ID).Str("status", string(p.Status)).Msg("event for settled payment ignored")
		return p, nil
	}
	if !event.State.Terminal() {
		return p, nil
	}

	if event.Amount != 0 && event.Amount != p.Amount {
		u.log.Warn().Str("payment_id", p.ID).Int64("recorded", p.Amount).Int64("reported", event.Amount).Msg("gateway reported different amount")
	}

	var completedAt *time.Time
	if event.State == model.PaymentStatusCompleted {
		now := time.Now()
		completedAt = &now
	}
	won, err := u.payments.UpdateStatusIfPending(ctx, repository.NoTX, p.ID, event.State, event.Extra, completedAt)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race to a concurrent delivery; report whatever the winner
		// recorded.
		return u.payments.FindByID(ctx, repository.NoTX, p.ID)
	}

	p.Status = event.State
	p.GatewayResponse = event.Extra
	p.CompletedAt = completedAt
	p.UpdatedAt = time.Now()
	metrics.IncPayment(string(event.State))

	if event.State != model.PaymentStatusCompleted {
		u.log.Info().Str("payment_id", p.ID).Str("status", string(event.State)).Msg("payment settled without grant")
		return p, nil
	}

	metrics.AddPaymentRevenue(p.Currency, p.Amount)
	if err := u.grant(ctx, p); err != nil {
		// The settlement record stays completed; the grant sweeper re-drives
		// the grant out of band.
		metrics.IncGrantFailure()
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("grant failed after settlement")
		return p, fmt.Errorf("%w: %v", domain.ErrGrantFailed, err)
	}
	u.log.Info().Str("payment_id", p.ID).Msg("payment settled and granted")
	return p, nil
}

// grant dispatches the entitlement for a freshly completed payment. Must be
// idempotent per payment: credits are keyed by source payment id, and
// subscription extension records the payment id it applied.
func (u *paymentUC) grant(ctx context.Context, p *model.Payment) error {
	switch p.Type {
	case model.PaymentTypeCredits:
		if p.PackageID == nil {
			return domain.ErrInvalidArgument
		}
		pkg, err := u.packages.FindByID(ctx, repository.NoTX, *p.PackageID)
		if err != nil {
			return err
		}
		_, err = u.credits.AddCredits(ctx, p.UserID, pkg.Credits, "credit package purchase: "+pkg.Name, model.TransactionTypePurchase, &p.ID)
		return err
	case model.PaymentTypeSubscription:
		if p.PlanID == nil {
			return domain.ErrInvalidArgument
		}
		_, err := u.subs.ActivateFromPayment(ctx, p.UserID, *p.PlanID, p.ID)
		return err
	}
	return domain.ErrInvalidArgument
}

func (u *paymentUC) findOwned(ctx context.Context, userID, merchantTxID string) (*model.Payment, error) {
	p, err := u.payments.FindByMerchantTxID(ctx, repository.NoTX, merchantTxID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownTransaction
		}
		return nil, err
	}
	if p.UserID != userID {
		// Do not leak other users' payment records.
		return nil, domain.ErrUnknownTransaction
	}
	return p, nil
}
