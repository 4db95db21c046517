//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
)

type paymentFixture struct {
	uc       *paymentUC
	payments *memPaymentRepo
	plans    *memPlanRepo
	ledger   *memLedger
	credits  *creditUC
	subs     *subscriptionUC
	subsRepo *memSubRepo
	gateway  *fakeGateway
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	packages := newMemPackageRepo()
	ledger := newMemLedger()
	subsRepo := newMemSubRepo()
	payments.ledger = ledger
	payments.subs = subsRepo
	gateway := &fakeGateway{}

	credits := NewCreditUseCase(ledger, memTxManager{}, noopCache{}, newTestLogger())
	subs := NewSubscriptionUseCase(subsRepo, plans, newTestLogger())
	uc := NewPaymentUseCase(payments, plans, packages, credits, subs, gateway, noLock{}, time.Second, newTestLogger())

	plan, err := model.NewSubscriptionPlan("plan-1", "Pro", 30, 1000, 49900, "INR")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := plans.Save(context.Background(), nil, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	pkg, err := model.NewCreditPackage("pkg-1", "Starter 500", 500, 9900, "INR")
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	if err := packages.Save(context.Background(), nil, pkg); err != nil {
		t.Fatalf("save package: %v", err)
	}

	return &paymentFixture{uc: uc, payments: payments, plans: plans, ledger: ledger, credits: credits, subs: subs, subsRepo: subsRepo, gateway: gateway}
}

// callback builds the gateway event a successful delivery would decode to.
func (f *paymentFixture) successCallback(merchantTxID string, amount int64) {
	f.gateway.decodeCallbackFn = func(rawBody []byte, _ string) (*model.GatewayEvent, error) {
		var body struct {
			MerchantTxID string `json:"merchant_tx_id"`
		}
		_ = json.Unmarshal(rawBody, &body)
		id := body.MerchantTxID
		if id == "" {
			id = merchantTxID
		}
		return &model.GatewayEvent{
			MerchantTxID: id,
			State:        model.PaymentStatusCompleted,
			Amount:       amount,
			ProviderRef:  "prov-1",
		}, nil
	}
}

func TestInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("amount mismatch writes nothing", func(t *testing.T) {
		f := newPaymentFixture(t)
		gatewayCalled := false
		f.gateway.createIntentFn = func(context.Context, string, int64, string, map[string]interface{}) (string, error) {
			gatewayCalled = true
			return "https://example.test/pay", nil
		}

		_, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9901, "starter pack")
		if !errors.Is(err, domain.ErrAmountMismatch) {
			t.Fatalf("want ErrAmountMismatch, got %v", err)
		}
		if gatewayCalled {
			t.Fatal("gateway must not be contacted on mismatch")
		}
		if got, _ := f.payments.ListByUser(ctx, nil, "u1", 10, 0); len(got) != 0 {
			t.Fatalf("mismatch persisted a payment: %d rows", len(got))
		}
	})

	t.Run("happy path persists a pending row", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, payURL, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "starter pack")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		if payURL == "" {
			t.Fatal("no pay url")
		}
		if p.Status != model.PaymentStatusPending {
			t.Fatalf("want pending, got %s", p.Status)
		}
		stored, err := f.payments.FindByMerchantTxID(ctx, nil, p.MerchantTxID)
		if err != nil {
			t.Fatalf("row not persisted: %v", err)
		}
		if stored.PackageID == nil || *stored.PackageID != "pkg-1" {
			t.Fatalf("package not recorded: %+v", stored)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-404", 9900, ""); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("settles and grants exactly once", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		f.successCallback(p.MerchantTxID, p.Amount)

		settled, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig")
		if err != nil {
			t.Fatalf("HandleCallback: %v", err)
		}
		if settled.Status != model.PaymentStatusCompleted {
			t.Fatalf("want completed, got %s", settled.Status)
		}
		b, err := f.credits.GetBalance(ctx, "u1")
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if b.Current != 500 {
			t.Fatalf("grant wrong: %d credits", b.Current)
		}

		// Redelivery: accepted, nothing granted twice.
		again, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig")
		if err != nil {
			t.Fatalf("redelivery errored: %v", err)
		}
		if again.Status != model.PaymentStatusCompleted {
			t.Fatalf("redelivery changed status: %s", again.Status)
		}
		b, _ = f.credits.GetBalance(ctx, "u1")
		if b.Current != 500 {
			t.Fatalf("redelivery double-granted: %d credits", b.Current)
		}
	})

	t.Run("invalid signature is surfaced untouched", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.gateway.decodeCallbackFn = func([]byte, string) (*model.GatewayEvent, error) {
			return nil, domain.ErrInvalidSignature
		}
		if _, err := f.uc.HandleCallback(ctx, []byte(`{}`), "bad"); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("want ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.successCallback("TX-DOES-NOT-EXIST", 100)
		if _, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig"); !errors.Is(err, domain.ErrUnknownTransaction) {
			t.Fatalf("want ErrUnknownTransaction, got %v", err)
		}
	})

	t.Run("grant failure keeps payment completed", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		f.ledger.insertErr = domain.ErrOperationFailed
		f.successCallback(p.MerchantTxID, p.Amount)

		_, err = f.uc.HandleCallback(ctx, []byte(`{}`), "sig")
		if !errors.Is(err, domain.ErrGrantFailed) {
			t.Fatalf("want ErrGrantFailed, got %v", err)
		}
		stored, _ := f.payments.FindByID(ctx, nil, p.ID)
		if stored.Status != model.PaymentStatusCompleted {
			t.Fatalf("settlement must survive grant failure, got %s", stored.Status)
		}

		// The window is recoverable: once the ledger heals, the same grant goes
		// through (this is what the sweeper re-drives).
		f.ledger.insertErr = nil
		if _, err := f.credits.AddCredits(ctx, "u1", 500, "re-drive", model.TransactionTypePurchase, &p.ID); err != nil {
			t.Fatalf("re-drive: %v", err)
		}
		b, _ := f.credits.GetBalance(ctx, "u1")
		if b.Current != 500 {
			t.Fatalf("re-driven grant wrong: %d", b.Current)
		}
	})

	t.Run("subscription payment activates plan", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeSubscription, "plan-1", 49900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		f.successCallback(p.MerchantTxID, p.Amount)
		if _, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig"); err != nil {
			t.Fatalf("HandleCallback: %v", err)
		}
		sub, err := f.subs.GetActive(ctx, "u1")
		if err != nil {
			t.Fatalf("no active subscription: %v", err)
		}
		if sub.PaymentID != p.ID {
			t.Fatalf("subscription not linked to payment")
		}
	})
}

func TestCheckStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("inconclusive poll leaves payment pending", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		f.gateway.checkStatusFn = func(ctx context.Context, _ string) (*model.GatewayEvent, error) {
			return nil, context.DeadlineExceeded
		}
		got, err := f.uc.CheckStatus(ctx, p.MerchantTxID)
		if err != nil {
			t.Fatalf("CheckStatus: %v", err)
		}
		if got.Status != model.PaymentStatusPending {
			t.Fatalf("timeout must not fail the payment: %s", got.Status)
		}
	})

	t.Run("verdict settles through the shared path", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		f.gateway.checkStatusFn = func(ctx context.Context, id string) (*model.GatewayEvent, error) {
			return &model.GatewayEvent{MerchantTxID: id, State: model.PaymentStatusCompleted, Amount: p.Amount}, nil
		}
		got, err := f.uc.CheckStatus(ctx, p.MerchantTxID)
		if err != nil {
			t.Fatalf("CheckStatus: %v", err)
		}
		if got.Status != model.PaymentStatusCompleted {
			t.Fatalf("want completed, got %s", got.Status)
		}
		b, _ := f.credits.GetBalance(ctx, "u1")
		if b.Current != 500 {
			t.Fatalf("poll settlement did not grant: %d", b.Current)
		}
	})

	t.Run("terminal payment never re-polls", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		if _, err := f.uc.Cancel(ctx, "u1", p.MerchantTxID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		polled := false
		f.gateway.checkStatusFn = func(ctx context.Context, _ string) (*model.GatewayEvent, error) {
			polled = true
			return nil, domain.ErrProviderFailed
		}
		got, err := f.uc.CheckStatus(ctx, p.MerchantTxID)
		if err != nil {
			t.Fatalf("CheckStatus: %v", err)
		}
		if polled {
			t.Fatal("terminal payment was polled")
		}
		if got.Status != model.PaymentStatusCancelled {
			t.Fatalf("want cancelled, got %s", got.Status)
		}
	})

	t.Run("unknown merchant tx id", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, err := f.uc.CheckStatus(ctx, "TX-NOPE"); !errors.Is(err, domain.ErrUnknownTransaction) {
			t.Fatalf("want ErrUnknownTransaction, got %v", err)
		}
	})
}

func TestCancelAndRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel is monotonic", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		got, err := f.uc.Cancel(ctx, "u1", p.MerchantTxID)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if got.Status != model.PaymentStatusCancelled {
			t.Fatalf("want cancelled, got %s", got.Status)
		}
		if _, err := f.uc.Cancel(ctx, "u1", p.MerchantTxID); !errors.Is(err, domain.ErrPaymentTerminal) {
			t.Fatalf("second cancel: want ErrPaymentTerminal, got %v", err)
		}
	})

	t.Run("cancel rejects foreign payments", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		if _, err := f.uc.Cancel(ctx, "u2", p.MerchantTxID); !errors.Is(err, domain.ErrUnknownTransaction) {
			t.Fatalf("want ErrUnknownTransaction, got %v", err)
		}
	})

	t.Run("retry creates a fresh linked row", func(t *testing.T) {
		f := newPaymentFixture(t)
		old, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "starter")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		if _, err := f.uc.Cancel(ctx, "u1", old.MerchantTxID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}

		fresh, payURL, err := f.uc.Retry(ctx, "u1", old.MerchantTxID)
		if err != nil {
			t.Fatalf("Retry: %v", err)
		}
		if payURL == "" {
			t.Fatal("retry returned no pay url")
		}
		if fresh.ID == old.ID || fresh.MerchantTxID == old.MerchantTxID {
			t.Fatal("retry reused the old row")
		}
		if fresh.Status != model.PaymentStatusPending {
			t.Fatalf("retry not pending: %s", fresh.Status)
		}
		if fresh.Meta["retry_of"] != old.ID {
			t.Fatalf("retry not linked: %+v", fresh.Meta)
		}
		// The link must land with the insert itself, not a follow-up write a
		// crash could lose.
		storedFresh, _ := f.payments.FindByID(ctx, nil, fresh.ID)
		if storedFresh.Meta["retry_of"] != old.ID {
			t.Fatalf("persisted retry row not linked: %+v", storedFresh.Meta)
		}
		if n := f.payments.saves[fresh.ID]; n != 1 {
			t.Fatalf("retry row written %d times, want a single linked insert", n)
		}
		stored, _ := f.payments.FindByID(ctx, nil, old.ID)
		if stored.Status != model.PaymentStatusCancelled {
			t.Fatalf("retry reopened the old row: %s", stored.Status)
		}
	})

	t.Run("retry rejects pending payments", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		if _, _, err := f.uc.Retry(ctx, "u1", p.MerchantTxID); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})
}

func TestUngrantedPaymentsAreListed(t *testing.T) {
	ctx := context.Background()

	t.Run("failed credit grant shows up until re-driven", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		f.ledger.insertErr = domain.ErrOperationFailed
		f.successCallback(p.MerchantTxID, p.Amount)
		if _, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig"); !errors.Is(err, domain.ErrGrantFailed) {
			t.Fatalf("want ErrGrantFailed, got %v", err)
		}

		ungranted, err := f.payments.ListCompletedWithoutGrant(ctx, nil, 10)
		if err != nil {
			t.Fatalf("ListCompletedWithoutGrant: %v", err)
		}
		if len(ungranted) != 1 || ungranted[0].ID != p.ID {
			t.Fatalf("completed-but-ungranted payment not listed: %+v", ungranted)
		}

		f.ledger.insertErr = nil
		if _, err := f.credits.AddCredits(ctx, p.UserID, 500, "re-drive", model.TransactionTypePurchase, &p.ID); err != nil {
			t.Fatalf("re-drive: %v", err)
		}
		if ungranted, _ = f.payments.ListCompletedWithoutGrant(ctx, nil, 10); len(ungranted) != 0 {
			t.Fatalf("granted payment still listed: %+v", ungranted)
		}
	})

	t.Run("failed subscription grant shows up until re-driven", func(t *testing.T) {
		f := newPaymentFixture(t)
		p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeSubscription, "plan-1", 49900, "")
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		// Plan lookup failure at grant time: the settlement lands, the
		// entitlement does not.
		f.plans.mu.Lock()
		plan := f.plans.store["plan-1"]
		delete(f.plans.store, "plan-1")
		f.plans.mu.Unlock()

		f.successCallback(p.MerchantTxID, p.Amount)
		if _, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig"); !errors.Is(err, domain.ErrGrantFailed) {
			t.Fatalf("want ErrGrantFailed, got %v", err)
		}
		stored, _ := f.payments.FindByID(ctx, nil, p.ID)
		if stored.Status != model.PaymentStatusCompleted {
			t.Fatalf("settlement must survive grant failure, got %s", stored.Status)
		}

		ungranted, err := f.payments.ListCompletedWithoutGrant(ctx, nil, 10)
		if err != nil {
			t.Fatalf("ListCompletedWithoutGrant: %v", err)
		}
		if len(ungranted) != 1 || ungranted[0].ID != p.ID {
			t.Fatalf("ungranted subscription payment not listed: %+v", ungranted)
		}

		if err := f.plans.Save(ctx, nil, plan); err != nil {
			t.Fatalf("restore plan: %v", err)
		}
		if _, err := f.subs.ActivateFromPayment(ctx, p.UserID, "plan-1", p.ID); err != nil {
			t.Fatalf("re-drive: %v", err)
		}
		if ungranted, _ = f.payments.ListCompletedWithoutGrant(ctx, nil, 10); len(ungranted) != 0 {
			t.Fatalf("granted subscription payment still listed: %+v", ungranted)
		}
		if sub, err := f.subs.GetActive(ctx, p.UserID); err != nil || sub.PaymentID != p.ID {
			t.Fatalf("entitlement missing after re-drive: %v", err)
		}
	})
}

func TestSettleConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	p, _, err := f.uc.Initiate(ctx, "u1", model.PaymentTypeCredits, "pkg-1", 9900, "")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	f.successCallback(p.MerchantTxID, p.Amount)

	const deliveries = 8
	done := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		go func() {
			_, err := f.uc.HandleCallback(ctx, []byte(`{}`), "sig")
			done <- err
		}()
	}
	for i := 0; i < deliveries; i++ {
		if err := <-done; err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	b, _ := f.credits.GetBalance(ctx, "u1")
	if b.Current != 500 {
		t.Fatalf("concurrent deliveries granted %d credits, want 500", b.Current)
	}
}
