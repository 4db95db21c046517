// File: internal/usecase/credit_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
	"ai-creative-suite/internal/infra/metrics"
)

// Compile-time check
var _ CreditUseCase = (*creditUC)(nil)

// CreditUseCase owns all mutations of the credit ledger. Every mutation is a
// ledger insert plus a balance rollup update inside one database transaction;
// the balance row update is conditional, so concurrent debits for the same
// user cannot race past the funds check.
type CreditUseCase interface {
	// AddCredits appends a positive entry. When sourcePaymentID is set the
	// grant is idempotent: a second call for the same payment is a no-op
	// returning the current balance.
	AddCredits(ctx context.Context, userID string, amount int64, reason string, sourceType model.TransactionType, sourcePaymentID *string) (*model.Balance, error)

	// DeductCredits appends a negative entry, failing with
	// domain.ErrInsufficientCredits when the balance cannot cover it.
	// No partial deduction, never a negative balance.
	DeductCredits(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error)

	// RefundCredits returns credits spent on a failed generation.
	RefundCredits(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error)

	// HasCredits is an advisory read: the balance can change between check
	// and use, so callers must still rely on DeductCredits for the
	// authoritative answer.
	HasCredits(ctx context.Context, userID string, required int64) (bool, int64, error)

	GetBalance(ctx context.Context, userID string) (*model.Balance, error)
	GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error)
}

// BalanceCache is a read-through cache for advisory balance reads. Mutation
// paths always hit Postgres and invalidate.
type BalanceCache interface {
	Get(ctx context.Context, userID string) (*model.Balance, bool)
	Set(ctx context.Context, b *model.Balance)
	Invalidate(ctx context.Context, userID string)
}

type creditUC struct {
	ledger repository.LedgerRepository
	tm     repository.TransactionManager
	cache  BalanceCache
	log    *zerolog.Logger
}

func NewCreditUseCase(ledger repository.LedgerRepository, tm repository.TransactionManager, cache BalanceCache, logger *zerolog.Logger) *creditUC {
	compLog := logger.With().Str("component", "CreditUC").Logger()
	return &creditUC{ledger: ledger, tm: tm, cache: cache, log: &compLog}
}

func (u *creditUC) AddCredits(ctx context.Context, userID string, amount int64, reason string, sourceType model.TransactionType, sourcePaymentID *string) (*model.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var bal *model.Balance
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if sourcePaymentID != nil {
			existing, err := u.ledger.FindBySourcePayment(ctx, tx, *sourcePaymentID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if existing != nil {
				// Grant already applied for this payment; redelivery is a no-op.
				u.log.Info().Str("payment_id", *sourcePaymentID).Msg("duplicate grant suppressed")
				cur, err := u.ledger.GetBalance(ctx, tx, userID)
				if err != nil {
					return err
				}
				bal = cur
				return nil
			}
		}

		t, err := model.NewTransaction(uuid.NewString(), userID, sourceType, amount, reason)
		if err != nil {
			return err
		}
		t.SourcePaymentID = sourcePaymentID
		if err := u.ledger.InsertTransaction(ctx, tx, t); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) && sourcePaymentID != nil {
				// Unique constraint on source_payment_id fired under a
				// concurrent grant. Treat like the existence check above.
				cur, gerr := u.ledger.GetBalance(ctx, tx, userID)
				if gerr != nil {
					return gerr
				}
				bal = cur
				return nil
			}
			return err
		}

		b, err := u.ledger.CreditBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		bal = b
		metrics.AddLedgerCredit(string(sourceType), amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, userID)
	return bal, nil
}

func (u *creditUC) DeductCredits(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var bal *model.Balance
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Guarded debit first: when funds are short the tx aborts before a
		// ledger row is written.
		b, err := u.ledger.DebitBalance(ctx, tx, userID, amount)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientCredits) {
				metrics.IncInsufficientCredits()
			}
			return err
		}

		t, err := model.NewTransaction(uuid.NewString(), userID, model.TransactionTypeDeduction, -amount, reason)
		if err != nil {
			return err
		}
		t.GenerationID = generationID
		if err := u.ledger.InsertTransaction(ctx, tx, t); err != nil {
			return err
		}
		bal = b
		metrics.AddLedgerDebit(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, userID)
	return bal, nil
}

func (u *creditUC) RefundCredits(ctx context.Context, userID string, amount int64, reason string, generationID *string) (*model.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var bal *model.Balance
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t, err := model.NewTransaction(uuid.NewString(), userID, model.TransactionTypeRefund, amount, reason)
		if err != nil {
			return err
		}
		t.GenerationID = generationID
		if err := u.ledger.InsertTransaction(ctx, tx, t); err != nil {
			return err
		}
		b, err := u.ledger.CreditBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		bal = b
		metrics.AddLedgerCredit(string(model.TransactionTypeRefund), amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, userID)
	return bal, nil
}

func (u *creditUC) HasCredits(ctx context.Context, userID string, required int64) (bool, int64, error) {
	if cached, ok := u.cache.Get(ctx, userID); ok {
		return cached.Current >= required, cached.Current, nil
	}
	b, err := u.ledger.GetBalance(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return required <= 0, 0, nil
		}
		return false, 0, err
	}
	u.cache.Set(ctx, b)
	return b.Current >= required, b.Current, nil
}

func (u *creditUC) GetBalance(ctx context.Context, userID string) (*model.Balance, error) {
	b, err := u.ledger.GetBalance(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No transactions yet: an empty balance, not an error.
			return &model.Balance{UserID: userID}, nil
		}
		return nil, err
	}
	return b, nil
}

func (u *creditUC) GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.ledger.ListTransactions(ctx, repository.NoTX, userID, limit, offset)
}
