package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

const txCols = `id, user_id, type, amount, description, generation_id, source_payment_id, created_at`

func (r *ledgerRepo) InsertTransaction(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (id, user_id, type, amount, description, generation_id, source_payment_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.UserID, t.Type, t.Amount, t.Description, t.GenerationID, t.SourcePaymentID, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ledgerRepo) CreditBalance(ctx context.Context, tx repository.Tx, userID string, amount int64) (*model.Balance, error) {
	const q = `
INSERT INTO balances (user_id, current, total_earned, total_spent, updated_at)
VALUES ($1, $2, $2, 0, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  current = balances.current + $2,
  total_earned = balances.total_earned + $2,
  updated_at = NOW()
RETURNING user_id, current, total_earned, total_spent, updated_at;`

	row, err := pickRow(ctx, r.pool, tx, q, userID, amount)
	if err != nil {
		return nil, err
	}
	b := &model.Balance{}
	if err := row.Scan(&b.UserID, &b.Current, &b.TotalEarned, &b.TotalSpent, &b.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return b, nil
}

// DebitBalance is the guarded conditional update: the WHERE clause is the
// funds check, so two concurrent debits cannot both pass it.
func (r *ledgerRepo) DebitBalance(ctx context.Context, tx repository.Tx, userID string, amount int64) (*model.Balance, error) {
	const q = `
UPDATE balances
   SET current = current - $2,
       total_spent = total_spent + $2,
       updated_at = NOW()
 WHERE user_id = $1
   AND current >= $2
RETURNING user_id, current, total_earned, total_spent, updated_at;`

	row, err := pickRow(ctx, r.pool, tx, q, userID, amount)
	if err != nil {
		return nil, err
	}
	b := &model.Balance{}
	if err := row.Scan(&b.UserID, &b.Current, &b.TotalEarned, &b.TotalSpent, &b.UpdatedAt); err != nil {
		if scanErr(err) == domain.ErrNotFound {
			// No row matched: balance row missing or funds short.
			return nil, domain.ErrInsufficientCredits
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}

func (r *ledgerRepo) GetBalance(ctx context.Context, tx repository.Tx, userID string) (*model.Balance, error) {
	const q = `SELECT user_id, current, total_earned, total_spent, updated_at FROM balances WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	b := &model.Balance{}
	if err := row.Scan(&b.UserID, &b.Current, &b.TotalEarned, &b.TotalSpent, &b.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return b, nil
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, tx repository.Tx, userID string, limit, offset int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + txCols + ` FROM transactions WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit, offset)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t := new(model.Transaction)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.GenerationID, &t.SourcePaymentID, &t.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *ledgerRepo) FindBySourcePayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.Transaction, error) {
	const q = `SELECT ` + txCols + ` FROM transactions WHERE source_payment_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	t := &model.Transaction{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.GenerationID, &t.SourcePaymentID, &t.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return t, nil
}

func (r *ledgerRepo) SumForUser(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM transactions WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
