//go:build !integration

package web

import (
	"context"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
)

// Stub use cases with overridable func fields, one per interface the server
// consumes. Unset fields answer with a zero value or ErrNotFound.

type stubPaymentUC struct {
	initiateFn       func(ctx context.Context, userID string, typ model.PaymentType, productID string, amount int64, description string) (*model.Payment, string, error)
	handleCallbackFn func(ctx context.Context, rawBody []byte, signatureHeader string) (*model.Payment, error)
	checkStatusFn    func(ctx context.Context, merchantTxID string) (*model.Payment, error)
	cancelFn         func(ctx context.Context, userID, merchantTxID string) (*model.Payment, error)
	retryFn          func(ctx context.Context, userID, merchantTxID string) (*model.Payment, string, error)
}

func (s *stubPaymentUC) Initiate(ctx context.Context, userID string, typ model.PaymentType, productID string, amount int64, description string) (*model.Payment, string, error) {
	if s.initiateFn != nil {
		return s.initiateFn(ctx, userID, typ, productID, amount, description)
	}
	return nil, "", domain.ErrNotFound
}

func (s *stubPaymentUC) HandleCallback(ctx context.Context, rawBody []byte, signatureHeader string) (*model.Payment, error) {
	if s.handleCallbackFn != nil {
		return s.handleCallbackFn(ctx, rawBody, signatureHeader)
	}
	return nil, domain.ErrInvalidSignature
}

func (s *stubPaymentUC) CheckStatus(ctx context.Context, merchantTxID string) (*model.Payment, error) {
	if s.checkStatusFn != nil {
		return s.checkStatusFn(ctx, merchantTxID)
	}
	return nil, domain.ErrUnknownTransaction
}

func (s *stubPaymentUC) Cancel(ctx context.Context, userID, merchantTxID string) (*model.Payment, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, userID, merchantTxID)
	}
	return nil, domain.ErrUnknownTransaction
}

func (s *stubPaymentUC) Retry(ctx context.Context, userID, merchantTxID string) (*model.Payment, string, error) {
	if s.retryFn != nil {
		return s.retryFn(ctx, userID, merchantTxID)
	}
	return nil, "", domain.ErrUnknownTransaction
}

func (s *stubPaymentUC) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error) {
	return nil, nil
}

func (s *stubPaymentUC) SumByPeriod(ctx context.Context, period string) (int64, error) {
	return 0, nil
}

type stubCreditUC struct {
	addFn     func(ctx context.Context, userID string, amount int64, reason string, sourceType model.TransactionType, sourcePaymentID *string) (*model.Balance, error)
	deductFn  func(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error)
	balanceFn func(ctx context.Context, userID string) (*model.Balance, error)
	historyFn func(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error)
}

func (s *stubCreditUC) AddCredits(ctx context.Context, userID string, amount int64, reason string, sourceType model.TransactionType, sourcePaymentID *string) (*model.Balance, error) {
	if s.addFn != nil {
		return s.addFn(ctx, userID, amount, reason, sourceType, sourcePaymentID)
	}
	return nil, domain.ErrInvalidAmount
}

func (s *stubCreditUC) DeductCredits(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error) {
	if s.deductFn != nil {
		return s.deductFn(ctx, userID, amount, reason, generationID)
	}
	return nil, domain.ErrInsufficientCredits
}

func (s *stubCreditUC) RefundCredits(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error) {
	return nil, domain.ErrInvalidAmount
}

func (s *stubCreditUC) HasCredits(ctx context.Context, userID string, required int64) (bool, int64, error) {
	return false, 0, nil
}

func (s *stubCreditUC) GetBalance(ctx context.Context, userID string) (*model.Balance, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, userID)
	}
	return &model.Balance{UserID: userID}, nil
}

func (s *stubCreditUC) GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, userID, limit, offset)
	}
	return nil, nil
}

type stubPlanUC struct{}

func (stubPlanUC) ListPlans(context.Context) ([]*model.SubscriptionPlan, error) { return nil, nil }
func (stubPlanUC) ListPackages(context.Context) ([]*model.CreditPackage, error) {
	return nil, nil
}

type stubSubUC struct{}

func (stubSubUC) ActivateFromPayment(context.Context, string, string, string) (*model.UserSubscription, error) {
	return nil, domain.ErrNotFound
}
func (stubSubUC) GetActive(context.Context, string) (*model.UserSubscription, error) {
	return nil, domain.ErrNotFound
}
func (stubSubUC) ListByUser(context.Context, string) ([]*model.UserSubscription, error) {
	return nil, nil
}
func (stubSubUC) ExpireDue(context.Context) (int64, error) { return 0, nil }

type stubGenUC struct{}

func (stubGenUC) Request(context.Context, string, model.GenerationKind, string, string) (*model.Generation, error) {
	return nil, domain.ErrInvalidArgument
}
func (stubGenUC) Get(context.Context, string, string) (*model.Generation, error) {
	return nil, domain.ErrNotFound
}
func (stubGenUC) ListByUser(context.Context, string, int, int) ([]*model.Generation, error) {
	return nil, nil
}

type stubStatsUC struct{}

func (stubStatsUC) Revenue(context.Context) (int64, int64, int64, error) { return 100, 200, 300, nil }
