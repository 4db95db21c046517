//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
	"ai-creative-suite/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxManager runs the function without a real transaction; the in-memory
// repos below are already atomic per call.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*model.Balance, bool) { return nil, false }
func (noopCache) Set(context.Context, *model.Balance)                {}
func (noopCache) Invalidate(context.Context, string)                 {}

// memLedger is an in-memory ledger with the same guarantees the Postgres repo
// provides: unique source payment ids and a funds-guarded debit.
type memLedger struct {
	mu        sync.Mutex
	entries   []*model.Transaction
	balances  map[string]*model.Balance
	insertErr error // simulate grant failures
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]*model.Balance)}
}

func (m *memLedger) InsertTransaction(ctx context.Context, _ repository.Tx, t *model.Transaction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.SourcePaymentID != nil {
		for _, e := range m.entries {
			if e.SourcePaymentID != nil && *e.SourcePaymentID == *t.SourcePaymentID {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedger) balance(userID string) *model.Balance {
	b, ok := m.balances[userID]
	if !ok {
		b = &model.Balance{UserID: userID}
		m.balances[userID] = b
	}
	return b
}

func (m *memLedger) CreditBalance(ctx context.Context, _ repository.Tx, userID string, amount int64) (*model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balance(userID)
	b.Current += amount
	b.TotalEarned += amount
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (m *memLedger) DebitBalance(ctx context.Context, _ repository.Tx, userID string, amount int64) (*model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok || b.Current < amount {
		return nil, domain.ErrInsufficientCredits
	}
	b.Current -= amount
	b.TotalSpent += amount
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (m *memLedger) GetBalance(ctx context.Context, _ repository.Tx, userID string) (*model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memLedger) ListTransactions(ctx context.Context, _ repository.Tx, userID string, limit, offset int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLedger) FindBySourcePayment(ctx context.Context, _ repository.Tx, paymentID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.SourcePaymentID != nil && *e.SourcePaymentID == paymentID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLedger) SumForUser(ctx context.Context, _ repository.Tx, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, e := range m.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum, nil
}

// memPaymentRepo mirrors the guarded conditional update of the Postgres repo.
// When ledger/subs are wired it also mirrors the ungranted-payment query.
type memPaymentRepo struct {
	mu     sync.Mutex
	store  map[string]*model.Payment // by ID
	saves  map[string]int            // writes per payment id
	ledger *memLedger                // grant evidence for credit payments
	subs   *memSubRepo               // grant evidence for subscription payments
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment), saves: make(map[string]int)}
}

func (m *memPaymentRepo) Save(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	m.saves[p.ID]++
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByMerchantTxID(ctx context.Context, _ repository.Tx, merchantTxID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.MerchantTxID == merchantTxID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, _ repository.Tx, id string, status model.PaymentStatus, gatewayResponse map[string]interface{}, completedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if gatewayResponse != nil {
		p.GatewayResponse = gatewayResponse
	}
	p.CompletedAt = completedAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memPaymentRepo) ListCompletedWithoutGrant(ctx context.Context, _ repository.Tx, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status != model.PaymentStatusCompleted || m.granted(ctx, p) {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memPaymentRepo) granted(ctx context.Context, p *model.Payment) bool {
	switch p.Type {
	case model.PaymentTypeCredits:
		if m.ledger == nil {
			return true
		}
		_, err := m.ledger.FindBySourcePayment(ctx, repository.NoTX, p.ID)
		return err == nil
	case model.PaymentTypeSubscription:
		if m.subs == nil {
			return true
		}
		_, err := m.subs.FindByPaymentID(ctx, repository.NoTX, p.ID)
		return err == nil
	}
	return true
}

func (m *memPaymentRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string, limit, offset int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) SumByPeriod(ctx context.Context, _ repository.Tx, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

// memPlanRepo / memPackageRepo hold the catalog.
type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.SubscriptionPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{store: make(map[string]*model.SubscriptionPlan)}
}

func (m *memPlanRepo) Save(ctx context.Context, _ repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) List(ctx context.Context, _ repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.SubscriptionPlan
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memPackageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.CreditPackage
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{store: make(map[string]*model.CreditPackage)}
}

func (m *memPackageRepo) Save(ctx context.Context, _ repository.Tx, p *model.CreditPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPackageRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.CreditPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPackageRepo) List(ctx context.Context, _ repository.Tx) ([]*model.CreditPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CreditPackage
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// memSubRepo keeps one row per grant, like the table it stands in for, and
// mirrors the unique payment_id constraint.
type memSubRepo struct {
	mu   sync.Mutex
	subs map[string]*model.UserSubscription // id -> row
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{subs: make(map[string]*model.UserSubscription)}
}

func (m *memSubRepo) Save(ctx context.Context, _ repository.Tx, s *model.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.subs {
		if cur.ID != s.ID && cur.PaymentID == s.PaymentID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *memSubRepo) FindActiveByUser(ctx context.Context, _ repository.Tx, userID string) (*model.UserSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.UserSubscription
	for _, s := range m.subs {
		if s.UserID != userID || s.Status != model.SubscriptionStatusActive {
			continue
		}
		if best == nil || s.ExpiresAt.After(best.ExpiresAt) {
			best = s
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memSubRepo) FindByPaymentID(ctx context.Context, _ repository.Tx, paymentID string) (*model.UserSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.PaymentID == paymentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string) ([]*model.UserSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UserSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubRepo) ExpireOlderThan(ctx context.Context, _ repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusActive && s.ExpiresAt.Before(now) {
			s.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

// memGenRepo stores generations.
type memGenRepo struct {
	mu    sync.Mutex
	store map[string]*model.Generation
}

func newMemGenRepo() *memGenRepo {
	return &memGenRepo{store: make(map[string]*model.Generation)}
}

func (m *memGenRepo) Save(ctx context.Context, _ repository.Tx, g *model.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.store[g.ID] = &cp
	return nil
}

func (m *memGenRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGenRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string, limit, offset int) ([]*model.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Generation
	for _, g := range m.store {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memGenRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.GenerationStatus, artifactURL, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.Status = status
	if artifactURL != "" {
		g.ArtifactURL = artifactURL
	}
	g.Error = errMsg
	g.UpdatedAt = time.Now()
	return nil
}

// fakeGateway has overridable func fields so each test shapes the provider.
type fakeGateway struct {
	createIntentFn   func(ctx context.Context, merchantTxID string, amount int64, description string, meta map[string]interface{}) (string, error)
	decodeCallbackFn func(rawBody []byte, signatureHeader string) (*model.GatewayEvent, error)
	checkStatusFn    func(ctx context.Context, merchantTxID string) (*model.GatewayEvent, error)
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreateIntent(ctx context.Context, merchantTxID string, amount int64, description string, meta map[string]interface{}) (string, error) {
	if f.createIntentFn != nil {
		return f.createIntentFn(ctx, merchantTxID, amount, description, meta)
	}
	return "https://example.test/pay/" + merchantTxID, nil
}

func (f *fakeGateway) DecodeCallback(rawBody []byte, signatureHeader string) (*model.GatewayEvent, error) {
	if f.decodeCallbackFn != nil {
		return f.decodeCallbackFn(rawBody, signatureHeader)
	}
	return nil, domain.ErrInvalidSignature
}

func (f *fakeGateway) CheckStatus(ctx context.Context, merchantTxID string) (*model.GatewayEvent, error) {
	if f.checkStatusFn != nil {
		return f.checkStatusFn(ctx, merchantTxID)
	}
	return nil, domain.ErrProviderFailed
}

// fakeProvider mirrors adapter.GenerationProvider for generation tests.
type fakeProvider struct {
	supportsFn func(kind model.GenerationKind) bool
	generateFn func(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*adapter.GenerationResult, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Supports(kind model.GenerationKind) bool {
	if f.supportsFn != nil {
		return f.supportsFn(kind)
	}
	return true
}

func (f *fakeProvider) Generate(ctx context.Context, kind model.GenerationKind, prompt, modelName string) (*adapter.GenerationResult, error) {
	if f.generateFn != nil {
		return f.generateFn(ctx, kind, prompt, modelName)
	}
	return &adapter.GenerationResult{ArtifactURL: "https://example.test/artifact", Model: modelName}, nil
}

// noLock always grants the lock.
type noLock struct{}

func (noLock) TryLock(context.Context, string, time.Duration) (string, error) { return "tok", nil }
func (noLock) Unlock(context.Context, string, string) error                  { return nil }
